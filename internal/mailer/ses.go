package mailer

import (
	"context"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// sesAPI is the slice of the SES client SendBulk needs; it lets tests
// substitute a fake.
type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESSender delivers mail through AWS SES v2. SES has no true bulk call for
// distinct bodies, so messages go out one at a time.
type SESSender struct {
	client sesAPI
	from   string
}

// NewSESSender creates a sender backed by AWS SES. Region defaults to
// us-east-1.
func NewSESSender(accessKey, secretKey, region, from string) (*SESSender, error) {
	if region == "" {
		region = "us-east-1"
	}
	if accessKey == "" || secretKey == "" {
		return nil, fmt.Errorf("SES credentials not configured")
	}

	cfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize AWS config: %w", err)
	}

	return &SESSender{
		client: sesv2.NewFromConfig(cfg),
		from:   from,
	}, nil
}

// SendBulk sends each message individually, logging and skipping failures.
// An error is returned only when nothing was delivered.
func (s *SESSender) SendBulk(ctx context.Context, msgs []Message) (int, error) {
	if len(msgs) == 0 {
		return 0, nil
	}

	sent := 0
	var lastErr error
	for _, msg := range msgs {
		if err := ctx.Err(); err != nil {
			break
		}
		input := &sesv2.SendEmailInput{
			FromEmailAddress: aws.String(s.from),
			Destination:      &types.Destination{ToAddresses: []string{msg.To}},
			Content: &types.EmailContent{
				Simple: &types.Message{
					Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
					Body: &types.Body{
						Text: &types.Content{Data: aws.String(msg.Body), Charset: aws.String("UTF-8")},
					},
				},
			},
		}
		if _, err := s.client.SendEmail(ctx, input); err != nil {
			lastErr = err
			log.Printf("[SES] Failed to send to %s: %v", msg.To, err)
			continue
		}
		sent++
	}

	if sent == 0 {
		if lastErr != nil {
			return 0, fmt.Errorf("failed to send any emails: %w", lastErr)
		}
		return 0, fmt.Errorf("failed to send any emails")
	}
	return sent, nil
}
