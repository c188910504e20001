package engines

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	"github.com/aws/aws-sdk-go-v2/service/polly/types"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/cracker/internal/cache"
	"github.com/dgnsrekt/cracker/internal/ttypes"
)

// PollyConfig configures the AWS Polly backend. Credentials come from the
// shared AWS configuration for Profile, or the environment.
type PollyConfig struct {
	Profile string `mapstructure:"profile" yaml:"profile"`
	Region  string `mapstructure:"region"  yaml:"region"`
	Engine  string `mapstructure:"engine"  yaml:"engine"`
}

type pollyAPI interface {
	SynthesizeSpeech(ctx context.Context, params *polly.SynthesizeSpeechInput, optFns ...func(*polly.Options)) (*polly.SynthesizeSpeechOutput, error)
}

// Polly synthesizes SSML through AWS Polly and stores MP3 artifacts.
type Polly struct {
	client pollyAPI
	engine types.Engine
	store  *cache.DiskStore
}

var _ ttypes.Synthesizer = (*Polly)(nil)

// NewPolly creates a Polly backend from the shared AWS configuration.
func NewPolly(ctx context.Context, config PollyConfig, store *cache.DiskStore) (*Polly, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if config.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(config.Profile))
	}
	if config.Region != "" {
		opts = append(opts, awsconfig.WithRegion(config.Region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS config for profile %q: %w", config.Profile, err)
	}
	return newPolly(polly.NewFromConfig(cfg), config.Engine, store), nil
}

func newPolly(client pollyAPI, engine string, store *cache.DiskStore) *Polly {
	if engine == "" {
		engine = string(types.EngineStandard)
	}
	return &Polly{client: client, engine: types.Engine(engine), store: store}
}

// Name implements ttypes.Synthesizer.
func (p *Polly) Name() ttypes.EngineType {
	return ttypes.EnginePolly
}

// Synthesize implements ttypes.Synthesizer.
func (p *Polly) Synthesize(ctx context.Context, text string, voice ttypes.VoiceConfig) (string, error) {
	voice = ResolveVoice(ttypes.EnginePolly, voice)
	ssml := NewSSML(text, voice.Rate, voice.Volume).String()

	out, err := p.client.SynthesizeSpeech(ctx, &polly.SynthesizeSpeechInput{
		Engine:       p.engine,
		OutputFormat: types.OutputFormatMp3,
		Text:         aws.String(ssml),
		TextType:     types.TextTypeSsml,
		VoiceId:      types.VoiceId(voice.VoiceID),
	})
	if err != nil {
		return "", fmt.Errorf("polly synthesize: %w", err)
	}
	defer out.AudioStream.Close()

	data, err := io.ReadAll(out.AudioStream)
	if err != nil {
		return "", fmt.Errorf("polly audio stream: %w", err)
	}
	log.Debug("Polly response", "voice", voice.VoiceID, "bytes", len(data))
	return p.store.Write(ctx, cache.ChunkKey(ttypes.EnginePolly, text, voice), "mp3", data)
}
