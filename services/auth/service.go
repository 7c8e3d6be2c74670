// Package auth implements the email verification-code login flow that
// gates the research API.
package auth

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"time"

	"hcpresearch-backend/lib/telemetry"
	"hcpresearch-backend/lib/timezone"
	"hcpresearch-backend/services/auth/db"
	"hcpresearch-backend/services/auth/verifier"

	"github.com/jordan-wright/email"
	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel/codes"

	_ "modernc.org/sqlite"
)

var tracer = telemetry.Tracer("hcpresearch.services.auth")

type SmtpConfig struct {
	Server       string `json:"server"`
	Port         int    `json:"port"`
	EmailAddress string `json:"email_address"`
	Password     string `json:"password"`
}

// Sender delivers a verification code email. Tests swap in a capture
// implementation, production uses SmtpSender.
type Sender interface {
	SendVerificationCode(ctx context.Context, userEmail, code string) error
}

type SmtpSender struct {
	Config SmtpConfig
}

func (s SmtpSender) SendVerificationCode(ctx context.Context, userEmail, code string) error {
	mail := email.NewEmail()
	mail.From = fmt.Sprintf("HCP Research <%s>", s.Config.EmailAddress)
	mail.To = []string{userEmail}
	mail.Subject = "Verification Code"

	body := fmt.Sprintf(`Please enter the following verification code for your HCP Research account when prompted.

%s

If you don't recognize this account, please ignore this email.`, code)
	mail.Text = []byte(body)

	err := mail.Send(
		fmt.Sprintf("%s:%d", s.Config.Server, s.Config.Port),
		smtp.PlainAuth("", s.Config.EmailAddress, s.Config.Password, s.Config.Server),
	)
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(fmt.Sprintf("%s:%d", s.Config.Server, s.Config.Port), nil)
	}
	return err
}

type Options struct {
	Sender               Sender
	AllowedDomains       []string
	TestEmail            string
	TestVerificationCode string
}

type Service struct {
	db       *sql.DB
	qry      *db.Queries
	verifier verifier.Verifier
	config   Options
}

func NewService(database *sql.DB, options Options) Service {
	return Service{
		db:       database,
		qry:      db.New(database),
		verifier: verifier.NewVerifier(database),
		config:   options,
	}
}

// StartExpiryDaemon periodically clears expired verification codes
// until the context is cancelled.
func (s Service) StartExpiryDaemon(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				err := s.qry.DeleteExpiredCodes(ctx, timezone.Now().Unix())
				if err != nil {
					slog.WarnContext(ctx, "failed to clear expired verification codes", "err", err)
				}
			}
		}
	}()
}

func normalizeEmail(email string) string {
	return strings.Trim(strings.ToLower(email), " \t\n")
}

func (s Service) createVerificationCode(ctx context.Context, txqry *db.Queries, email string) (code string, err error) {
	ctx, span := tracer.Start(ctx, "createVerificationCode")
	defer span.End()

	code, err = random.String(8)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to generate verification code")
		return "", err
	}
	err = txqry.CreateVerificationCode(ctx, db.CreateVerificationCodeParams{
		Code:      code,
		Useremail: normalizeEmail(email),
		Expiresat: timezone.Now().Add(time.Hour).Unix(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to insert verification code row")
		return "", err
	}

	return code, nil
}

func (s Service) hasAllowedDomain(email string) bool {
	if len(s.config.AllowedDomains) == 0 {
		return true
	}
	for _, d := range s.config.AllowedDomains {
		if strings.HasSuffix(email, d) {
			return true
		}
	}
	return false
}

// StartLogin creates a verification code for the email and sends it.
func (s Service) StartLogin(ctx context.Context, userEmail string) error {
	ctx, span := tracer.Start(ctx, "StartLogin")
	defer span.End()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	txqry := s.qry.WithTx(tx)

	userEmail = normalizeEmail(userEmail)
	if !s.hasAllowedDomain(userEmail) {
		span.SetStatus(codes.Error, "disallowed email domain")
		return fmt.Errorf("invalid email domain, please use a different email address")
	}

	err = txqry.EnsureUserExists(ctx, userEmail)
	if err != nil {
		return err
	}
	code, err := s.createVerificationCode(ctx, txqry, userEmail)
	if err != nil {
		return err
	}

	err = tx.Commit()
	if err != nil {
		return err
	}

	err = s.config.Sender.SendVerificationCode(ctx, userEmail, code)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		return err
	}

	return nil
}

func (s Service) verifyAndDeleteCode(ctx context.Context, txqry *db.Queries, code string) error {
	ctx, span := tracer.Start(ctx, "verifyAndDeleteCode")
	defer span.End()

	_, err := txqry.GetUserFromCode(ctx, db.GetUserFromCodeParams{
		Code: code,
		Now:  timezone.Now().Unix(),
	})
	if err == sql.ErrNoRows {
		span.SetStatus(codes.Error, "invalid verification code")
		return fmt.Errorf("invalid verification code")
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get user from code")
		return err
	}
	err = txqry.DeleteVerificationCode(ctx, code)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "could not delete consumed verification code")
		return err
	}

	return nil
}

func (s Service) createToken(ctx context.Context, txqry *db.Queries, email string) (string, error) {
	ctx, span := tracer.Start(ctx, "createToken")
	defer span.End()

	nonce := make([]byte, 32)
	_, err := rand.Read(nonce)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to generate token")
		return "", err
	}
	token := hex.EncodeToString(nonce)
	err = txqry.CreateToken(ctx, db.CreateTokenParams{
		Useremail: email,
		Token:     token,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "got unexpected error while creating token")
		return "", err
	}

	return token, nil
}

// ConsumeVerificationCode exchanges a valid code for a bearer token.
func (s Service) ConsumeVerificationCode(ctx context.Context, userEmail, providedCode string) (string, error) {
	ctx, span := tracer.Start(ctx, "ConsumeVerificationCode")
	defer span.End()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()
	txqry := s.qry.WithTx(tx)

	userEmail = normalizeEmail(userEmail)
	providedCode = strings.Trim(providedCode, " \t\n")

	// hard coded bypass for demo accounts
	if s.config.TestEmail != "" && userEmail == s.config.TestEmail && providedCode == s.config.TestVerificationCode {
		token, err := s.createToken(ctx, txqry, userEmail)
		if err != nil {
			return "", err
		}
		err = tx.Commit()
		if err != nil {
			return "", err
		}
		return token, nil
	}

	err = s.verifyAndDeleteCode(ctx, txqry, providedCode)
	if err != nil {
		return "", err
	}
	token, err := s.createToken(ctx, txqry, userEmail)
	if err != nil {
		return "", err
	}

	err = tx.Commit()
	if err != nil {
		return "", err
	}

	return token, nil
}

// VerifyToken resolves a bearer token back to the user it belongs to.
func (s Service) VerifyToken(ctx context.Context, token string) (db.User, error) {
	return s.verifier.VerifyToken(ctx, token)
}
