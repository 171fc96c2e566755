package alerts

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	inputs []*sns.PublishInput
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: aws.String("m-1")}, nil
}

func TestNew_NopWithoutTopic(t *testing.T) {
	assert.IsType(t, Nop{}, New(&fakePublisher{}, " "))
	assert.IsType(t, Nop{}, New(nil, "arn:aws:sns:us-east-1:1:alerts"))
	assert.NoError(t, Nop{}.Notify(context.Background(), Alert{}))
}

func TestSNSNotifier_Notify(t *testing.T) {
	pub := &fakePublisher{}
	n := New(pub, "arn:aws:sns:us-east-1:1:alerts")

	err := n.Notify(context.Background(), Alert{
		Shop:    "demo.myshopify.com",
		Subject: strings.Repeat("s", 150),
		Message: "order #1001 has 2 payment schedules",
	})
	require.NoError(t, err)
	require.Len(t, pub.inputs, 1)

	in := pub.inputs[0]
	assert.Equal(t, "arn:aws:sns:us-east-1:1:alerts", aws.ToString(in.TopicArn))
	assert.Len(t, aws.ToString(in.Subject), maxSubjectLen)
	assert.Equal(t, "demo.myshopify.com", aws.ToString(in.MessageAttributes["shop"].StringValue))
}

func TestSNSNotifier_SubjectIsASCII(t *testing.T) {
	pub := &fakePublisher{}
	n := New(pub, "arn:aws:sns:us-east-1:1:alerts")

	// Multi-byte runes and the newline are dropped before the length cap.
	subject := "Payment schedules: Bestellung #Müller\n" + strings.Repeat("é", 60) + strings.Repeat("x", 80)
	require.NoError(t, n.Notify(context.Background(), Alert{Subject: subject}))

	got := aws.ToString(pub.inputs[0].Subject)
	assert.Len(t, got, maxSubjectLen)
	assert.True(t, strings.HasPrefix(got, "Payment schedules: Bestellung #Mller"))
	for _, r := range got {
		assert.True(t, r >= ' ' && r <= '~', "unexpected rune %q", r)
	}
}

func TestSNSNotifier_Error(t *testing.T) {
	pub := &fakePublisher{err: errors.New("throttled")}
	err := New(pub, "arn").Notify(context.Background(), Alert{Subject: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")
}
