package sequencer

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/distribution/reference"

	"github.com/kzgceremony/seqdeploy/internal/manifest"
)

// Regions offered by the wizard.
var regionOptions = []huh.Option[string]{
	huh.NewOption("Amsterdam, Netherlands (ams)", "ams"),
	huh.NewOption("Frankfurt, Germany (fra)", "fra"),
	huh.NewOption("London, United Kingdom (lhr)", "lhr"),
	huh.NewOption("Ashburn, Virginia (iad)", "iad"),
	huh.NewOption("Singapore (sin)", "sin"),
}

// WizardResult holds the answers given to the init wizard.
type WizardResult struct {
	App               string
	Image             string
	Region            string
	PublicURL         string
	MultiContribution bool
	ComputeDeadline   string
	Metrics           bool
}

// RunWizard asks for the deployment specifics of a new sequencer.
func RunWizard(ctx context.Context) (*WizardResult, error) {
	result := &WizardResult{
		App:             DefaultApp,
		Image:           DefaultImage,
		Region:          "ams",
		PublicURL:       "https://seq.ceremony.ethereum.org",
		ComputeDeadline: "180",
		Metrics:         true,
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("App name").
				Description("Unique deployment name (DNS-safe, lowercase)").
				Value(&result.App).
				Validate(manifest.ValidateAppName),
			huh.NewInput().
				Title("Image").
				Description("Container image of the sequencer").
				Value(&result.Image).
				Validate(validateImage),
		),

		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Primary region").
				Options(regionOptions...).
				Value(&result.Region),
		),

		huh.NewGroup(
			huh.NewInput().
				Title("Public URL").
				Description("Origin the OAuth providers redirect back to").
				Placeholder("https://seq.example.org").
				Value(&result.PublicURL).
				Validate(validatePublicURL),
		),

		huh.NewGroup(
			huh.NewConfirm().
				Title("Allow multiple contributions per participant?").
				Value(&result.MultiContribution),
			huh.NewInput().
				Title("Compute deadline").
				Description("Seconds a contributor has to upload their contribution").
				Value(&result.ComputeDeadline).
				Validate(validateDeadline),
		),

		huh.NewGroup(
			huh.NewConfirm().
				Title("Expose Prometheus metrics?").
				Description(fmt.Sprintf("Scraped on port %d", MetricsPort)).
				Value(&result.Metrics),
		),
	)

	if err := form.RunWithContext(ctx); err != nil {
		return nil, fmt.Errorf("wizard canceled: %w", err)
	}

	return result, nil
}

// ToManifest converts the answers to a complete manifest based on
// DefaultManifest.
func (r *WizardResult) ToManifest() *manifest.Manifest {
	m := DefaultManifest()
	m.App = r.App
	m.Build.Image = r.Image
	m.PrimaryRegion = r.Region

	base := strings.TrimSuffix(r.PublicURL, "/")
	m.Env[GHRedirectURL] = base + "/auth/callback/github"
	m.Env[ETHRedirectURL] = base + "/auth/callback/eth"
	m.Env[MultiContribution] = strconv.FormatBool(r.MultiContribution)
	m.Env[ComputeDeadline] = r.ComputeDeadline

	if !r.Metrics {
		m.Metrics = nil
	}
	return m
}

func validateImage(s string) error {
	if _, err := reference.ParseNormalizedNamed(s); err != nil {
		return fmt.Errorf("invalid image reference: %w", err)
	}
	return nil
}

func validatePublicURL(s string) error {
	u, err := url.Parse(s)
	if err != nil || u.Scheme != "https" || u.Host == "" {
		return errors.New("public URL must be an absolute https:// URL")
	}
	if u.Path != "" && u.Path != "/" {
		return errors.New("public URL must not have a path")
	}
	return nil
}

func validateDeadline(s string) error {
	d, err := ParseSeconds(s)
	if err != nil {
		return err
	}
	if d <= 0 {
		return errors.New("compute deadline must be positive")
	}
	return nil
}
