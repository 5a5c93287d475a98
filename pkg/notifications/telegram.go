package notifications

import (
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/imroc/req/v3"
)

const maxMessageLength = 4096

type Telegram struct {
	client   *req.Client
	apiToken string
}

func NewTelegram(
	apiToken string,
	cl *req.Client,
) *Telegram {
	return &Telegram{
		client:   cl,
		apiToken: apiToken,
	}
}

// SendMessage posts text to the chat, split on line boundaries when it
// exceeds the telegram message limit.
func (t *Telegram) SendMessage(
	ctx context.Context,
	chatID int64,
	text string,
) error {
	if strings.TrimSpace(text) == "" {
		return errors.New("empty message")
	}

	for _, chunk := range splitMessage(text, maxMessageLength) {
		if err := t.send(ctx, chatID, chunk); err != nil {
			return err
		}
	}

	return nil
}

func (t *Telegram) send(
	ctx context.Context,
	chatID int64,
	text string,
) error {
	resp, err := t.client.R().
		SetBody(map[string]interface{}{
			"chat_id": chatID,
			"text":    text,
		}).
		SetContext(ctx).
		Post(fmt.Sprintf("https://api.telegram.org/bot%v/sendMessage", t.apiToken))

	if err != nil {
		return errors.WithStack(err)
	}

	if resp.IsErrorState() {
		return errors.Newf("unexpected status code: %v and message %v", resp.StatusCode, resp.String())
	}

	return nil
}

func splitMessage(text string, limit int) []string {
	var chunks []string
	var current []rune

	for _, line := range strings.SplitAfter(text, "\n") {
		runes := []rune(line)

		if len(current)+len(runes) > limit && len(current) > 0 {
			chunks = append(chunks, string(current))
			current = nil
		}

		for len(runes) > limit {
			chunks = append(chunks, string(runes[:limit]))
			runes = runes[limit:]
		}

		current = append(current, runes...)
	}

	if len(current) > 0 {
		chunks = append(chunks, string(current))
	}

	return chunks
}
