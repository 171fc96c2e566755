package alerts

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// SNS caps subjects at 100 characters.
const maxSubjectLen = 100

// Alert is an anomaly that needs a human to look at an order.
type Alert struct {
	Shop    string
	Subject string
	Message string
}

type Notifier interface {
	Notify(ctx context.Context, a Alert) error
}

type Publisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// New returns a notifier publishing to topicArn, or a no-op one when alerts are not configured.
func New(client Publisher, topicArn string) Notifier {
	topicArn = strings.TrimSpace(topicArn)
	if client == nil || topicArn == "" {
		return Nop{}
	}
	return &SNSNotifier{client: client, topicArn: topicArn}
}

type SNSNotifier struct {
	client   Publisher
	topicArn string
}

func (n *SNSNotifier) Notify(ctx context.Context, a Alert) error {
	subject := sanitizeSubject(a.Subject)

	in := &sns.PublishInput{
		TopicArn: aws.String(n.topicArn),
		Subject:  aws.String(subject),
		Message:  aws.String(a.Message),
	}
	if a.Shop != "" {
		in.MessageAttributes = map[string]snstypes.MessageAttributeValue{
			"shop": {DataType: aws.String("String"), StringValue: aws.String(a.Shop)},
		}
	}

	if _, err := n.client.Publish(ctx, in); err != nil {
		return fmt.Errorf("sns publish: %w", err)
	}
	return nil
}

// SNS subjects must be printable ASCII.
func sanitizeSubject(subject string) string {
	subject = strings.Map(func(r rune) rune {
		if r < ' ' || r > '~' {
			return -1
		}
		return r
	}, subject)
	subject = strings.TrimSpace(subject)
	if len(subject) > maxSubjectLen {
		subject = subject[:maxSubjectLen]
	}
	return subject
}

type Nop struct{}

func (Nop) Notify(context.Context, Alert) error { return nil }
