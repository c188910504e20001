package engines

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"os/exec"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/dgnsrekt/cracker/internal/ttypes"
)

// CheckResult reports whether a backend is usable on this machine.
type CheckResult struct {
	// Engine is the checked backend
	Engine ttypes.EngineType

	// Available indicates if the backend is installed and configured
	Available bool

	// Err contains the reason the backend is unavailable
	Err error

	// Guidance provides setup instructions if the check failed
	Guidance string

	// Details contains additional information for display
	Details map[string]string
}

// lookPath is swapped out in tests.
var lookPath = exec.LookPath

// Check inspects a backend's configuration without synthesizing anything.
func Check(ctx context.Context, engine ttypes.EngineType, config Config) *CheckResult {
	result := &CheckResult{Engine: engine, Details: make(map[string]string)}

	switch engine {
	case ttypes.EngineEspeak:
		checkEspeak(config.Espeak, result)
	case ttypes.EnginePolly:
		checkPolly(ctx, config.Polly, result)
	case ttypes.EngineGoogle:
		checkGoogle(config.Google, result)
	case ttypes.EngineLocalServer:
		checkLocalServer(config.LocalServer, result)
	default:
		result.Err = fmt.Errorf("%w: %q", ttypes.ErrUnknownEngine, engine)
		result.Guidance = "Supported engines: polly, espeak, google, localserver"
	}
	return result
}

func checkEspeak(config EspeakConfig, result *CheckResult) {
	binary := config.Binary
	if binary == "" {
		binary = "espeak"
	}
	path, err := lookPath(binary)
	if err != nil {
		result.Err = fmt.Errorf("%s not found in PATH: %w", binary, err)
		result.Guidance = espeakInstallGuidance
		return
	}
	result.Details["binary_path"] = path
	result.Available = true
}

func checkPolly(ctx context.Context, config PollyConfig, result *CheckResult) {
	var opts []func(*awsconfig.LoadOptions) error
	if config.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(config.Profile))
		result.Details["profile"] = config.Profile
	}
	if config.Region != "" {
		opts = append(opts, awsconfig.WithRegion(config.Region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		result.Err = fmt.Errorf("unable to load AWS config: %w", err)
		result.Guidance = pollyGuidance
		return
	}
	if cfg.Region == "" {
		result.Err = fmt.Errorf("no AWS region configured")
		result.Guidance = pollyGuidance
		return
	}
	result.Details["region"] = cfg.Region
	result.Available = true
}

func checkGoogle(config GoogleConfig, result *CheckResult) {
	if config.APIKey == "" {
		result.Err = fmt.Errorf("no Google API key configured")
		result.Guidance = googleGuidance
		return
	}
	endpoint := config.Endpoint
	if endpoint == "" {
		endpoint = DefaultGoogleEndpoint
	}
	result.Details["endpoint"] = endpoint
	result.Available = true
}

func checkLocalServer(config LocalServerConfig, result *CheckResult) {
	raw := config.URL
	if raw == "" {
		raw = DefaultLocalServerURL
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		result.Err = fmt.Errorf("invalid local server url %q", raw)
		result.Guidance = "Set localserver.url in the config file, e.g. http://localhost:8000/tts"
		return
	}
	result.Details["url"] = raw

	host := u.Host
	if u.Port() == "" {
		port := "80"
		if u.Scheme == "https" {
			port = "443"
		}
		host = net.JoinHostPort(u.Hostname(), port)
	}
	conn, err := net.DialTimeout("tcp", host, time.Second)
	if err != nil {
		result.Err = fmt.Errorf("local server not reachable: %w", err)
		result.Guidance = "Start the local TTS server, or point localserver.url at it."
		return
	}
	conn.Close()
	result.Available = true
}

const espeakInstallGuidance = `espeak is not installed. To install:

   # Ubuntu/Debian
   sudo apt install espeak

   # Arch Linux
   sudo pacman -S espeak

   # macOS (Homebrew)
   brew install espeak

Or point espeak.binary in the config file at an espeak-ng binary.`

const pollyGuidance = `AWS Polly needs credentials and a region. Either:

1. Configure a profile with the AWS CLI:
   aws configure --profile default

2. Or export the environment variables (a .env file works too):
   AWS_ACCESS_KEY_ID=...
   AWS_SECRET_ACCESS_KEY=...
   AWS_REGION=us-east-1`

const googleGuidance = `Google Cloud Text-to-Speech needs an API key:

1. Enable the Text-to-Speech API in the Google Cloud console
2. Create an API key
3. Export it, or put it in a .env file:
   GOOGLE_API_KEY=...`
