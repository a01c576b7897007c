package gemini

import (
	"context"
	"errors"
	"strings"

	"github.com/Ayash-Bera/budgetbites/backend/pkg/utils"
	"github.com/sirupsen/logrus"
)

// ProviderError is returned when the generative provider cannot be used or
// returned nothing usable.
type ProviderError struct {
	Message string
	Err     error
}

func (e *ProviderError) Error() string {
	return e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Service turns a prompt into raw store records.
type Service struct {
	generator Generator
	model     string
	retry     RetryConfig
	logger    *logrus.Logger
}

// NewService builds the service. generator may be nil when no API key is
// configured; every call then fails with a ProviderError.
func NewService(generator Generator, model string, retry RetryConfig, logger *logrus.Logger) *Service {
	if strings.TrimSpace(model) == "" {
		logger.Warn("Gemini model not configured; using placeholder 'gemini-2.5-flash'")
		model = "gemini-2.5-flash"
	}
	if generator == nil {
		logger.Warn("Gemini API key not configured; search calls will fail until provided")
	}
	return &Service{
		generator: generator,
		model:     model,
		retry:     retry,
		logger:    logger,
	}
}

// GenerateOffers runs the prompt and parses the answer. Unparseable output
// yields an empty list, not an error.
func (s *Service) GenerateOffers(ctx context.Context, prompt string) ([]RawStoreRecord, error) {
	log := utils.LoggerFrom(ctx, s.logger)

	if s.generator == nil {
		return nil, &ProviderError{Message: "Gemini API key missing"}
	}

	var resp *GroundedText
	err := retryOperation(ctx, s.retry, log, func() error {
		var err error
		resp, err = s.generator.Generate(ctx, s.model, prompt)
		return err
	})
	if err != nil {
		log.WithError(err).Error("Gemini client error")
		return nil, &ProviderError{Message: "Failed to call Gemini API", Err: err}
	}

	if resp == nil || strings.TrimSpace(resp.Text) == "" {
		log.Error("Unexpected Gemini response; no text available")
		return nil, &ProviderError{Message: "Unexpected response format from Gemini API"}
	}

	text := AddCitations(resp.Text, resp.Supports, resp.Sources)
	if resp.Supports == nil {
		log.Debug("No grounding metadata available for citations")
	}

	records, strategy := ParseStoreRecords(text)
	fields := logrus.Fields{
		"records":  len(records),
		"strategy": strategy,
	}
	if len(records) == 0 {
		preview := text
		if len(preview) > 500 {
			preview = preview[:500] + "..."
		}
		fields["preview"] = preview
		log.WithFields(fields).Warn("No store records decoded from Gemini response")
	} else {
		log.WithFields(fields).Debug("Decoded Gemini response")
	}

	return records, nil
}

// IsProviderError reports whether err is (or wraps) a ProviderError.
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}
