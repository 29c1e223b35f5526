package sendmatchdigest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	awsclient "gradmatch-workers/internal/common/aws"
	apperrors "gradmatch-workers/internal/common/errors"
	"gradmatch-workers/internal/common/logger"
	"gradmatch-workers/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	inputs []*ses.SendEmailInput
	err    error
}

func (f *fakeSender) SendEmail(_ context.Context, in *ses.SendEmailInput) (*ses.SendEmailOutput, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

type fakePublisher struct {
	inputs []*sns.PublishInput
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, in *sns.PublishInput) (*sns.PublishOutput, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: aws.String("alert-1")}, nil
}

func testMatches() []models.Match {
	var out []models.Match
	categories := []models.Category{models.CategoryReach, models.CategoryTarget, models.CategoryTarget, models.CategoryTarget, models.CategoryTarget}
	for i, c := range categories {
		out = append(out, models.Match{
			ID:            fmt.Sprintf("m%d", i),
			Program:       models.Program{ID: fmt.Sprintf("p%d", i), Name: fmt.Sprintf("Program %d", i)},
			University:    models.University{Name: fmt.Sprintf("University %d", i)},
			OverallScore:  0.9 - float64(i)*0.1,
			Category:      c,
			Reasoning:     []string{"Strong research fit"},
			LowConfidence: i == 0,
		})
	}
	return out
}

func testConfig() *Config {
	cfg := LoadConfig()
	cfg.AlertsEnabled = true
	cfg.CoverageTopicARN = "arn:aws:sns:us-east-1:123456789012:coverage"
	return cfg
}

func setupHandler(t *testing.T, sender awsclient.EmailSender, publisher awsclient.Publisher) (*Handler, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	h := NewHandler(testConfig(), sender, publisher, rdb, logger.NewTestLogger(t))
	h.now = func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }
	return h, mr
}

func TestExecute_SendsDigestWithTopMatches(t *testing.T) {
	sender, publisher := &fakeSender{}, &fakePublisher{}
	h, _ := setupHandler(t, sender, publisher)

	out, err := h.Execute(context.Background(), &Input{
		CandidateID:        "c1",
		RecipientEmail:     "ada@example.com",
		RecipientName:      "Ada",
		Matches:            testMatches(),
		CoverageSufficient: true,
		TotalMatches:       5,
	})
	require.NoError(t, err)

	assert.Equal(t, StatusSent, out.Status)
	assert.True(t, out.EmailSent)
	assert.False(t, out.AlertPublished)
	assert.Empty(t, publisher.inputs)

	require.Len(t, sender.inputs, 1)
	msg := sender.inputs[0]
	assert.Equal(t, []string{"ada@example.com"}, msg.Destination.ToAddresses)
	assert.Equal(t, "Your 5 graduate program matches", *msg.Message.Subject.Data)

	text := *msg.Message.Body.Text.Data
	assert.Contains(t, text, "Hi Ada")
	assert.Contains(t, text, "University 0, Program 0 (90%) *")
	assert.Contains(t, text, "University 3")
	assert.NotContains(t, text, "University 4")
	assert.Contains(t, *msg.Message.Body.Html.Data, "<h3>Reach</h3>")
}

func TestExecute_SuppressesDuplicateDigest(t *testing.T) {
	sender := &fakeSender{}
	h, _ := setupHandler(t, sender, nil)
	input := &Input{CandidateID: "c1", RecipientEmail: "ada@example.com", Matches: testMatches(), CoverageSufficient: true}

	first, err := h.Execute(context.Background(), input)
	require.NoError(t, err)
	second, err := h.Execute(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, first.NotificationID, second.NotificationID)
	assert.Equal(t, StatusDuplicate, second.Status)
	assert.Len(t, sender.inputs, 1)
}

func TestExecute_PublishesCoverageAlert(t *testing.T) {
	sender, publisher := &fakeSender{}, &fakePublisher{}
	h, _ := setupHandler(t, sender, publisher)

	out, err := h.Execute(context.Background(), &Input{
		CandidateID:    "c1",
		RecipientEmail: "ada@example.com",
		Matches:        testMatches()[:2],
		Condition:      "INSUFFICIENT_CATALOG_COVERAGE",
		TotalMatches:   2,
	})
	require.NoError(t, err)
	assert.True(t, out.AlertPublished)
	assert.True(t, out.EmailSent)

	require.Len(t, publisher.inputs, 1)
	alert := publisher.inputs[0]
	assert.Equal(t, "arn:aws:sns:us-east-1:123456789012:coverage", *alert.TopicArn)
	assert.Equal(t, "INSUFFICIENT_CATALOG_COVERAGE", *alert.MessageAttributes["condition"].StringValue)

	var body CoverageAlert
	require.NoError(t, json.Unmarshal([]byte(*alert.Message), &body))
	assert.Equal(t, "c1", body.CandidateID)
	assert.Equal(t, 2, body.TotalMatches)
}

func TestExecute_EmptyResultAlertsWithoutEmail(t *testing.T) {
	sender, publisher := &fakeSender{}, &fakePublisher{}
	h, _ := setupHandler(t, sender, publisher)

	out, err := h.Execute(context.Background(), &Input{CandidateID: "c1", RecipientEmail: "ada@example.com", Condition: "EMPTY_CATALOG"})
	require.NoError(t, err)

	assert.Equal(t, StatusDisabled, out.Status)
	assert.True(t, out.AlertPublished)
	assert.Empty(t, sender.inputs)
}

func TestExecute_SendFailureReleasesDedupeKey(t *testing.T) {
	sender := &fakeSender{err: errors.New("throttled")}
	h, mr := setupHandler(t, sender, nil)
	input := &Input{CandidateID: "c1", RecipientEmail: "ada@example.com", Matches: testMatches(), CoverageSufficient: true}

	_, err := h.Execute(context.Background(), input)
	require.Error(t, err)
	stdErr := apperrors.Normalize(err)
	assert.Equal(t, apperrors.ErrCodeNotificationSendFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
	assert.Empty(t, mr.Keys())

	sender.err = nil
	out, err := h.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, StatusSent, out.Status)
}

func TestExecute_AlertFailureIsRetryable(t *testing.T) {
	h, _ := setupHandler(t, &fakeSender{}, &fakePublisher{err: errors.New("topic missing")})

	_, err := h.Execute(context.Background(), &Input{CandidateID: "c1", Condition: "EMPTY_CATALOG"})
	require.Error(t, err)
	assert.Contains(t, apperrors.Normalize(err).Details, "sns")
}

func TestExecute_MissingCandidate(t *testing.T) {
	h := NewHandler(testConfig(), nil, nil, nil, logger.NewTestLogger(t))

	_, err := h.Execute(context.Background(), &Input{})
	assert.Equal(t, apperrors.ErrorCode("BUSINESS_RULE_VIOLATION"), apperrors.Normalize(err).Code)
}

func TestExecute_InvalidRecipient(t *testing.T) {
	sender := &fakeSender{}
	h, _ := setupHandler(t, sender, &fakePublisher{})

	_, err := h.Execute(context.Background(), &Input{
		CandidateID:        "c1",
		RecipientEmail:     "not-an-address",
		Matches:            testMatches(),
		CoverageSufficient: true,
	})
	require.Error(t, err)
	stdErr := apperrors.Normalize(err)
	assert.Equal(t, apperrors.ErrorCode("BUSINESS_RULE_VIOLATION"), stdErr.Code)
	assert.Contains(t, stdErr.Details, "recipientEmail")
	assert.Empty(t, sender.inputs)
}

func TestInput_ValidateTrims(t *testing.T) {
	in := &Input{CandidateID: "  c1 ", RecipientEmail: " ada@example.com "}
	require.NoError(t, in.Validate())
	assert.Equal(t, "c1", in.CandidateID)
	assert.Equal(t, "ada@example.com", in.RecipientEmail)

	assert.Error(t, (&Input{CandidateID: "   "}).Validate())
	assert.Error(t, (&Input{CandidateID: "c1", TotalMatches: -1}).Validate())
}
