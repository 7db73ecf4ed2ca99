package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/aussiebroadwan/arbeit/internal/portal/domain"
	"github.com/aussiebroadwan/arbeit/pkg/slogx"
)

// Registrar submits a validated candidate registration upstream.
type Registrar interface {
	RegisterCandidate(ctx context.Context, draft domain.RegistrationDraft) error
}

// RegistrationService validates candidate self-registration drafts before
// forwarding them. It never establishes a session.
type RegistrationService struct {
	Registrar Registrar
	Logger    *slog.Logger

	validate *validator.Validate
	trans    ut.Translator
}

// NewRegistrationService builds a RegistrationService with English messages.
func NewRegistrationService(reg Registrar, logger *slog.Logger) (*RegistrationService, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	// Report JSON field names so errors line up with the form.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	english := en.New()
	trans, _ := ut.New(english, english).GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, fmt.Errorf("register translations: %w", err)
	}

	return &RegistrationService{
		Registrar: reg,
		Logger:    logger,
		validate:  validate,
		trans:     trans,
	}, nil
}

// Normalize trims the free-text fields and lower-cases the email.
func Normalize(d domain.RegistrationDraft) domain.RegistrationDraft {
	d.Name = strings.TrimSpace(d.Name)
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
	d.Phone = strings.TrimSpace(d.Phone)
	d.LinkedInURL = strings.TrimSpace(d.LinkedInURL)
	d.CurrentCompany = strings.TrimSpace(d.CurrentCompany)
	return d
}

// Validate checks d locally. Field problems are reported as a
// *domain.ValidationError keyed by JSON field name.
func (s *RegistrationService) Validate(d domain.RegistrationDraft) error {
	err := s.validate.Struct(d)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate registration: %w", err)
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Translate(s.trans)
	}
	return &domain.ValidationError{Fields: fields}
}

// Register validates and forwards the draft. The caller must still log in
// afterwards.
func (s *RegistrationService) Register(ctx context.Context, draft domain.RegistrationDraft) error {
	log := slogx.FromContextOr(ctx, s.Logger)

	draft = Normalize(draft)
	if err := s.Validate(draft); err != nil {
		return err
	}

	if err := s.Registrar.RegisterCandidate(ctx, draft); err != nil {
		switch {
		case errors.Is(err, domain.ErrUnreachable):
			log.Warn("candidate registration failed: identity service unreachable", "error", err)
		default:
			log.Info("candidate registration rejected", "kind", string(domain.KindOf(err)))
		}
		return err
	}

	log.Info("candidate registered")
	return nil
}
