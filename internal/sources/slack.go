package sources

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strconv"
	"strings"
	"time"

	"github.com/slack-go/slack"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/supportinsights/support-insights/internal/model"
)

const (
	slackPageSize    = 200
	slackTitleLength = 120
)

// SlackSource reads top-level messages of one channel, oldest page first as
// returned by conversations.history.
type SlackSource struct {
	api     *slack.Client
	channel string
	oldest  string
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewSlackSource creates a source over an existing client. oldest is a Slack
// timestamp lower bound and may be empty.
func NewSlackSource(api *slack.Client, channel, oldest string, limiter *rate.Limiter, logger *zap.Logger) *SlackSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	if limiter == nil {
		limiter = rate.NewLimiter(DefaultRateLimit, 1)
	}
	return &SlackSource{
		api:     api,
		channel: channel,
		oldest:  oldest,
		limiter: limiter,
		logger:  logger.Named("slack"),
	}
}

// NewSlackFromConfig is the registry factory. It requires the "channel"
// setting and a Slack token; "oldest" and "apiUrl" are optional.
func NewSlackFromConfig(cfg model.DataSourceConfiguration, opts Options) (Source, error) {
	channel, err := requireSetting(cfg, "channel")
	if err != nil {
		return nil, err
	}
	if opts.SlackToken == "" {
		return nil, errors.New("slack source: no token configured")
	}

	var clientOpts []slack.Option
	if apiURL := cfg.Settings["apiUrl"]; apiURL != "" {
		clientOpts = append(clientOpts, slack.OptionAPIURL(apiURL))
	}
	api := slack.New(opts.SlackToken, clientOpts...)
	return NewSlackSource(api, channel, cfg.Settings["oldest"], opts.limiter(), opts.logger()), nil
}

// Name returns "slack".
func (s *SlackSource) Name() string {
	return "slack"
}

// Signals pages through the channel history. Bot joins, topic changes and
// other subtyped messages are ignored.
func (s *SlackSource) Signals(ctx context.Context) iter.Seq2[model.SupportSignal, error] {
	return func(yield func(model.SupportSignal, error) bool) {
		cursor := ""
		for {
			if err := s.limiter.Wait(ctx); err != nil {
				yield(model.SupportSignal{}, err)
				return
			}

			resp, err := s.api.GetConversationHistoryContext(ctx, &slack.GetConversationHistoryParameters{
				ChannelID: s.channel,
				Cursor:    cursor,
				Limit:     slackPageSize,
				Oldest:    s.oldest,
			})
			if err != nil {
				yield(model.SupportSignal{}, fmt.Errorf("slack history for %s: %w", s.channel, err))
				return
			}

			for _, msg := range resp.Messages {
				if msg.SubType != "" || strings.TrimSpace(msg.Text) == "" {
					continue
				}
				sig, err := s.toSignal(msg)
				if err != nil {
					s.logger.Warn("skipping malformed slack message", zap.String("channel", s.channel), zap.String("ts", msg.Timestamp), zap.Error(err))
					continue
				}
				if !yield(sig, nil) {
					return
				}
			}

			cursor = resp.ResponseMetaData.NextCursor
			if !resp.HasMore || cursor == "" {
				return
			}
		}
	}
}

func (s *SlackSource) toSignal(msg slack.Message) (model.SupportSignal, error) {
	ts, err := parseSlackTimestamp(msg.Timestamp)
	if err != nil {
		return model.SupportSignal{}, err
	}
	title, description := splitMessage(msg.Text)
	return model.SupportSignal{
		ID:          "slack-" + s.channel + "-" + msg.Timestamp,
		Title:       title,
		Description: description,
		Source:      s.Name(),
		Timestamp:   ts,
	}, nil
}

// parseSlackTimestamp converts "1712345678.000200" to a UTC time.
func parseSlackTimestamp(ts string) (time.Time, error) {
	secs, frac, _ := strings.Cut(ts, ".")
	sec, err := strconv.ParseInt(secs, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad slack ts %q", ts)
	}
	var micros int64
	if frac != "" {
		if micros, err = strconv.ParseInt(frac, 10, 64); err != nil {
			return time.Time{}, fmt.Errorf("bad slack ts %q", ts)
		}
	}
	return time.Unix(sec, micros*int64(time.Microsecond)).UTC(), nil
}

// splitMessage uses the first line as the title, capped in length, and the
// remainder as the description.
func splitMessage(text string) (string, string) {
	text = strings.TrimSpace(text)
	first, rest, _ := strings.Cut(text, "\n")
	first = strings.TrimSpace(first)
	if r := []rune(first); len(r) > slackTitleLength {
		return string(r[:slackTitleLength]), text
	}
	return first, strings.TrimSpace(rest)
}
