// Package sns is the adapter for direct-to-phone SMS over Amazon SNS.
package sns

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awssns "github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"

	"github.com/oggyb/polysms/internal/domain/message"
	"github.com/oggyb/polysms/internal/registry"
	"github.com/oggyb/polysms/internal/sms"
)

const (
	// Name is the default registration name.
	Name = "sns"

	attrSenderID = "AWS.SNS.SMS.SenderID"
	attrSMSType  = "AWS.SNS.SMS.SMSType"
	attrMaxPrice = "AWS.SNS.SMS.MaxPrice"

	// SMSTypeTransactional is delivered with higher priority.
	SMSTypeTransactional = "Transactional"
	// SMSTypePromotional is the cheaper, lower priority type.
	SMSTypePromotional = "Promotional"

	configLoadTimeout = 30 * time.Second
)

// ErrMissingRegion is returned when no region is configured.
var ErrMissingRegion = errors.New("sns: region is required")

// Publisher is the subset of the SNS client the gateway needs.
type Publisher interface {
	Publish(ctx context.Context, params *awssns.PublishInput, optFns ...func(*awssns.Options)) (*awssns.PublishOutput, error)
	GetSMSAttributes(ctx context.Context, params *awssns.GetSMSAttributesInput, optFns ...func(*awssns.Options)) (*awssns.GetSMSAttributesOutput, error)
}

// Config is the vendor configuration stored under registry.MetaConfig.
// Credentials come from the default AWS chain.
type Config struct {
	Region   string `yaml:"region" json:"region"`
	SenderID string `yaml:"sender_id" json:"senderId"`
	SMSType  string `yaml:"sms_type" json:"smsType"`
	MaxPrice string `yaml:"max_price" json:"maxPrice"`
	// Endpoint overrides the service endpoint (e.g. LocalStack).
	Endpoint string        `yaml:"endpoint" json:"endpoint"`
	Timeout  time.Duration `yaml:"timeout" json:"timeout"`
}

// Gateway publishes SMS through SNS.
type Gateway struct {
	name      string
	publisher Publisher
	cfg       Config
}

// New loads the default AWS configuration and builds the gateway.
func New(ctx context.Context, name string, cfg Config) (*Gateway, error) {
	if cfg.Region == "" {
		return nil, ErrMissingRegion
	}

	loadCtx, cancel := context.WithTimeout(ctx, configLoadTimeout)
	defer cancel()

	awsCfg, err := awsconfig.LoadDefaultConfig(loadCtx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := awssns.NewFromConfig(awsCfg, func(o *awssns.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		if cfg.Timeout > 0 {
			o.HTTPClient = &http.Client{Timeout: cfg.Timeout}
		}
	})
	return NewWithPublisher(name, client, cfg), nil
}

// NewWithPublisher builds the gateway around an existing publisher.
func NewWithPublisher(name string, p Publisher, cfg Config) *Gateway {
	if name == "" {
		name = Name
	}
	if cfg.SMSType == "" {
		cfg.SMSType = SMSTypeTransactional
	}
	return &Gateway{name: name, publisher: p, cfg: cfg}
}

// Factory builds the gateway from the Config registered under name.
func Factory(name string) registry.Factory {
	return func(r *registry.Registry) (sms.Gateway, error) {
		cfg, err := registry.ConfigOf[Config](r, name)
		if err != nil {
			return nil, err
		}
		return New(context.Background(), name, cfg)
	}
}

func (g *Gateway) Name() string { return g.name }

func (g *Gateway) Config() sms.Config {
	return sms.Config{
		DisplayName: "Amazon SNS",
		Description: "Direct-to-phone SMS through Amazon Simple Notification Service.",
		LogoURL:     "https://a0.awsstatic.com/libra-css/images/logos/aws_logo_smile_1200x630.png",
	}
}

// Send publishes the message to the recipient's phone number. The
// envelope's sender id wins over the configured one.
func (g *Gateway) Send(ctx context.Context, env message.Envelope) (*sms.Result, error) {
	m := env.Base()

	attrs := map[string]types.MessageAttributeValue{
		attrSMSType: stringAttr(g.cfg.SMSType),
	}
	sender := m.SenderID
	if sender == "" {
		sender = g.cfg.SenderID
	}
	if sender != "" {
		attrs[attrSenderID] = stringAttr(sender)
	}
	if g.cfg.MaxPrice != "" {
		attrs[attrMaxPrice] = types.MessageAttributeValue{
			DataType:    aws.String("Number"),
			StringValue: aws.String(g.cfg.MaxPrice),
		}
	}

	out, err := g.publisher.Publish(ctx, &awssns.PublishInput{
		PhoneNumber:       aws.String(m.To),
		Message:           aws.String(m.Content),
		MessageAttributes: attrs,
	})
	if err != nil {
		return sms.Failed(g.name, fmt.Sprintf("sns publish failed: %v", err)), nil
	}

	res := sms.Succeeded(g.name, "Sms published to Amazon SNS.")
	res.MessageID = aws.ToString(out.MessageId)
	return res, nil
}

// Health verifies credentials and reachability by reading account SMS
// attributes.
func (g *Gateway) Health(ctx context.Context) error {
	if _, err := g.publisher.GetSMSAttributes(ctx, &awssns.GetSMSAttributesInput{
		Attributes: []string{"DefaultSMSType"},
	}); err != nil {
		return fmt.Errorf("health: %w", err)
	}
	return nil
}

func stringAttr(v string) types.MessageAttributeValue {
	return types.MessageAttributeValue{
		DataType:    aws.String("String"),
		StringValue: aws.String(v),
	}
}

var (
	_ sms.Gateway       = (*Gateway)(nil)
	_ sms.HealthChecker = (*Gateway)(nil)
	_ Publisher         = (*awssns.Client)(nil)
)
