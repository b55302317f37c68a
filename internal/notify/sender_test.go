package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSendGrid struct {
	msg    *mail.SGMailV3
	status int
	err    error
}

func (f *fakeSendGrid) SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error) {
	f.msg = email
	if f.err != nil {
		return nil, f.err
	}
	return &rest.Response{StatusCode: f.status}, nil
}

type fakeSES struct {
	input *sesv2.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func leadMessage() EmailMessage {
	return EmailMessage{
		To:       "owner@agency.ae",
		ToName:   "Omar",
		ReplyTo:  "sarah@example.com",
		Subject:  "New lead",
		Body:     "text",
		HTML:     "<p>html</p>",
		Category: CategoryLead,
	}
}

func TestNewSendGridSenderNeedsAPIKey(t *testing.T) {
	assert.Nil(t, NewSendGridSender(SendGridConfig{From: From{Email: "leads@example.com"}}, nil))

	sender := NewSendGridSender(SendGridConfig{APIKey: "key", From: From{Email: "leads@example.com"}}, nil)
	require.NotNil(t, sender)
	assert.Equal(t, defaultFromName, sender.from.Name)
}

func TestSendGridSenderSend(t *testing.T) {
	api := &fakeSendGrid{status: 202}
	sender := newSendGridSender(api, From{Email: "leads@example.com"}, nil)

	require.NoError(t, sender.Send(context.Background(), leadMessage()))
	require.NotNil(t, api.msg)
	assert.Equal(t, "New lead", api.msg.Subject)
	assert.Equal(t, "leads@example.com", api.msg.From.Address)
	assert.Equal(t, defaultFromName, api.msg.From.Name)
	require.NotNil(t, api.msg.ReplyTo)
	assert.Equal(t, "sarah@example.com", api.msg.ReplyTo.Address)
	assert.Equal(t, []string{CategoryLead}, api.msg.Categories)
}

func TestSendGridSenderErrors(t *testing.T) {
	sender := newSendGridSender(&fakeSendGrid{status: 401}, From{}, nil)
	assert.Error(t, sender.Send(context.Background(), EmailMessage{To: "owner@agency.ae"}))

	sender = newSendGridSender(&fakeSendGrid{err: errors.New("dial tcp")}, From{}, nil)
	assert.Error(t, sender.Send(context.Background(), EmailMessage{To: "owner@agency.ae"}))

	assert.Error(t, (&SendGridSender{}).Send(context.Background(), EmailMessage{}))
}

func TestSESSenderSend(t *testing.T) {
	api := &fakeSES{}
	sender := newSESSender(api, From{Email: "leads@example.com"}, nil)

	require.NoError(t, sender.Send(context.Background(), leadMessage()))
	in := api.input
	assert.Equal(t, "Luxury Leads AI <leads@example.com>", aws.ToString(in.FromEmailAddress))
	assert.Equal(t, []string{"owner@agency.ae"}, in.Destination.ToAddresses)
	assert.Equal(t, []string{"sarah@example.com"}, in.ReplyToAddresses)
	assert.Equal(t, "text", aws.ToString(in.Content.Simple.Body.Text.Data))
	assert.Equal(t, "<p>html</p>", aws.ToString(in.Content.Simple.Body.Html.Data))
	require.Len(t, in.EmailTags, 1)
	assert.Equal(t, CategoryLead, aws.ToString(in.EmailTags[0].Value))
}

func TestSESSenderErrors(t *testing.T) {
	sender := newSESSender(&fakeSES{err: errors.New("throttled")}, From{}, nil)
	assert.Error(t, sender.Send(context.Background(), EmailMessage{To: "owner@agency.ae"}))
	assert.Nil(t, NewSESSender(nil, From{}, nil))
}

func TestStubEmailSender(t *testing.T) {
	assert.NoError(t, NewStubEmailSender(nil).Send(context.Background(), EmailMessage{To: "owner@agency.ae"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, NewStubEmailSender(nil).Send(ctx, EmailMessage{}), context.Canceled)
}
