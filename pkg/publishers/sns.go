package publishers

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// snsSubjectLimit is the longest subject SNS accepts for email endpoints.
const snsSubjectLimit = 100

// snsClient defines the minimal subset of the SNS client used by snsPublisher.
type snsClient interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type snsPublisher struct {
	id       string
	typ      string
	topicARN string
	fifo     bool
	client   snsClient
	log      Logger
}

func newSNSPublisher(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	if cfg.SNS == nil {
		return nil, fmt.Errorf("publisher %q missing sns configuration", cfg.ID)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, awscfg.WithRegion(cfg.SNS.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &snsPublisher{
		id:       cfg.ID,
		typ:      TypeSNS,
		topicARN: cfg.SNS.TopicARN,
		fifo:     strings.HasSuffix(cfg.SNS.TopicARN, ".fifo"),
		client:   sns.NewFromConfig(awsCfg),
		log:      ensureLogger(log),
	}, nil
}

func (s *snsPublisher) ID() string   { return s.id }
func (s *snsPublisher) Type() string { return s.typ }

// Publish announces the station on the configured topic.
func (s *snsPublisher) Publish(ctx context.Context, evt Event) error {
	payload, err := evt.encode()
	if err != nil {
		return err
	}

	input := &sns.PublishInput{
		TopicArn: aws.String(s.topicARN),
		Message:  aws.String(string(payload)),
		MessageAttributes: convertAttributes(evt, func(v string) types.MessageAttributeValue {
			return types.MessageAttributeValue{DataType: aws.String("String"), StringValue: aws.String(v)}
		}),
	}
	if subject := snsSubject(evt); subject != "" {
		input.Subject = aws.String(subject)
	}
	if s.fifo {
		input.MessageGroupId = aws.String(evt.groupKey())
		input.MessageDeduplicationId = aws.String(evt.dedupeKey())
	}

	out, err := s.client.Publish(ctx, input)
	if err != nil {
		s.log.ErrorObj("sns publisher send failed", "publisher_sns_error", deliveryFields(s.id, evt, err))
		return fmt.Errorf("publish to sns: %w", err)
	}
	fields := deliveryFields(s.id, evt, nil)
	fields["message_id"] = aws.ToString(out.MessageId)
	s.log.DebugObj("sns publisher delivered event", "publisher_sns_delivery", fields)
	return nil
}

// snsSubject renders "New station: <name>" as printable ASCII within the
// subject limit. Stations without a usable name get no subject.
func snsSubject(evt Event) string {
	name := strings.Map(func(r rune) rune {
		if r < 0x20 || r > 0x7e {
			return -1
		}
		return r
	}, evt.Station.Name)
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	subject := "New station: " + name
	if len(subject) > snsSubjectLimit {
		subject = strings.TrimSpace(subject[:snsSubjectLimit])
	}
	return subject
}
