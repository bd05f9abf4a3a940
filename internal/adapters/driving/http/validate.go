package http

import (
	"net/url"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/custodia-labs/clipper-core/internal/core/domain"
)

// Request limits enforced before the pipeline runs
const (
	maxCustomInstructions = 4000
	maxRunIDLength        = 128
	maxImageUploadsLimit  = 50
)

// validateSaveRequest checks the shape of a save request at the entry point.
// Content limits (text lengths, block counts) are enforced by the pipeline itself.
func validateSaveRequest(req *domain.SaveRequest) error {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.CollectionID, validation.Required, validation.By(notBlank("collectionId"))),
	); err != nil {
		return err
	}

	if err := validation.ValidateStruct(&req.Page,
		validation.Field(&req.Page.URL, validation.Required, validation.By(absoluteURL)),
	); err != nil {
		return err
	}

	opts := &req.Options
	return validation.ValidateStruct(opts,
		validation.Field(&opts.Provider, validation.In(domain.ModelProviderAnthropic, domain.ModelProviderOpenAI).
			Error("must be anthropic or openai")),
		validation.Field(&opts.Model, validation.Length(0, 200)),
		validation.Field(&opts.CustomInstructions, validation.RuneLength(0, maxCustomInstructions)),
		validation.Field(&opts.MaxImageUploads, validation.Min(0), validation.Max(maxImageUploadsLimit)),
		validation.Field(&opts.RunID, validation.Length(0, maxRunIDLength)),
	)
}

func notBlank(name string) validation.RuleFunc {
	return func(value any) error {
		if strings.TrimSpace(value.(string)) == "" {
			return validation.NewError("validation_"+name+"_blank", "must not be blank")
		}
		return nil
	}
}

func absoluteURL(value any) error {
	raw, _ := value.(string)
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return validation.NewError("validation_url_invalid", "must be an absolute http(s) URL")
	}
	return nil
}
