package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	"github.com/devdanielvaldez/autoclinic-bot/pkg/logging"
)

func TestNewSendGridSender_NilWithoutAPIKey(t *testing.T) {
	if sender := NewSendGridSender(SendGridConfig{}, nil); sender != nil {
		t.Fatal("expected nil sender without API key")
	}
}

func TestNewSendGridSender_DefaultFromName(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{APIKey: "SG.test", FromEmail: "bot@autoclinic.do"}, nil)
	if sender == nil {
		t.Fatal("expected sender")
	}
	if sender.fromName != "Auto Clinic RD" {
		t.Errorf("expected default from name, got %q", sender.fromName)
	}
}

func TestSendGridSender_Send_NilSender(t *testing.T) {
	var sender *SendGridSender
	if err := sender.Send(context.Background(), EmailMessage{To: []string{"a@b.c"}}); err == nil {
		t.Fatal("expected error from unconfigured sender")
	}
}

func TestStubEmailSender_Send(t *testing.T) {
	stub := NewStubEmailSender(logging.Discard())
	if err := stub.Send(context.Background(), EmailMessage{To: []string{"a@b.c"}, Subject: "x"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := stub.Send(context.Background(), EmailMessage{To: []string{" "}}); !errors.Is(err, errNoRecipients) {
		t.Fatalf("expected errNoRecipients, got %v", err)
	}
}

func TestBuildSendGridMail(t *testing.T) {
	msg := EmailMessage{
		To:       []string{"ana@autoclinic.do", "", "luis@autoclinic.do"},
		Subject:  "Alerta",
		Text:     "texto",
		HTML:     "<p>html</p>",
		Category: CategoryHandoff,
	}
	m, err := buildSendGridMail("Auto Clinic RD", "bot@autoclinic.do", msg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m.Personalizations) != 1 || len(m.Personalizations[0].To) != 2 {
		t.Fatalf("expected one personalization with two recipients, got %+v", m.Personalizations)
	}
	if m.Personalizations[0].To[1].Address != "luis@autoclinic.do" {
		t.Errorf("unexpected recipient %q", m.Personalizations[0].To[1].Address)
	}
	if len(m.Content) != 2 || m.Content[0].Type != "text/plain" || m.Content[1].Type != "text/html" {
		t.Errorf("unexpected content %+v", m.Content)
	}
	if len(m.Categories) != 1 || m.Categories[0] != "handoff" {
		t.Errorf("unexpected categories %v", m.Categories)
	}
	if m.From.Name != "Auto Clinic RD" {
		t.Errorf("unexpected from %+v", m.From)
	}

	if _, err := buildSendGridMail("x", "y", EmailMessage{Text: "t"}); !errors.Is(err, errNoRecipients) {
		t.Errorf("expected errNoRecipients, got %v", err)
	}
}

type fakeSES struct {
	input *sesv2.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(_ context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestSESSenderBuildsMessage(t *testing.T) {
	api := &fakeSES{}
	sender := newSESSender(api, SESConfig{FromEmail: "bot@autoclinic.do"}, logging.Discard())

	err := sender.Send(context.Background(), EmailMessage{
		To:       []string{"staff@autoclinic.do", "jefe@autoclinic.do"},
		Subject:  "Hola",
		Text:     "texto",
		HTML:     "<p>html</p>",
		Category: CategoryHandoff,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := aws.ToString(api.input.FromEmailAddress); got != "Auto Clinic RD <bot@autoclinic.do>" {
		t.Errorf("unexpected from %q", got)
	}
	body := api.input.Content.Simple.Body
	if aws.ToString(body.Text.Data) != "texto" || aws.ToString(body.Html.Data) != "<p>html</p>" {
		t.Errorf("unexpected body %+v", body)
	}
	if to := api.input.Destination.ToAddresses; len(to) != 2 || to[0] != "staff@autoclinic.do" {
		t.Errorf("unexpected destination %v", to)
	}
	if len(api.input.EmailTags) != 1 || aws.ToString(api.input.EmailTags[0].Value) != "handoff" {
		t.Errorf("expected category tag, got %+v", api.input.EmailTags)
	}
}

func TestSESSenderWrapsErrors(t *testing.T) {
	sender := newSESSender(&fakeSES{err: errors.New("throttled")}, SESConfig{}, logging.Discard())
	if err := sender.Send(context.Background(), EmailMessage{To: []string{"x@y.z"}, Text: "b"}); err == nil {
		t.Fatal("expected error")
	}
	if NewSESSender(nil, SESConfig{}, nil) != nil {
		t.Error("expected nil sender without client")
	}
}
