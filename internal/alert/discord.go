package alert

import (
	"context"
	"fmt"

	"kraken-orderbook-watcher/internal/domain"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/disgo/webhook"
)

const maxEmbedRawLength = 900

type DiscordNotifier struct {
	client webhook.Client
}

func NewDiscordNotifier(webhookUrl string) (*DiscordNotifier, error) {
	client, err := webhook.NewWithURL(webhookUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord webhook client: %w", err)
	}
	return &DiscordNotifier{client: client}, nil
}

func (n *DiscordNotifier) Notify(ctx context.Context, anomaly domain.Anomaly) error {
	_, err := n.client.CreateEmbeds([]discord.Embed{anomalyEmbed(anomaly)}, rest.WithCtx(ctx))
	if err != nil {
		return fmt.Errorf("failed to send message to discord: %w", err)
	}
	return nil
}

func (n *DiscordNotifier) Close(ctx context.Context) {
	n.client.Close(ctx)
}

func anomalyEmbed(anomaly domain.Anomaly) discord.Embed {
	raw, truncated := anomaly.RawPrefix(maxEmbedRawLength)
	if truncated {
		raw += "..."
	}
	pair := anomaly.Pair
	if pair == "" {
		pair = "-"
	}

	return discord.NewEmbedBuilder().
		SetTitle("Order book feed anomaly").
		SetColor(0xff0000).
		AddField("Exchange", anomaly.Exchange, true).
		AddField("Kind", anomaly.Kind, true).
		AddField("Pair", pair, true).
		AddField("Reason", anomaly.Reason, false).
		AddField("Message", "```"+raw+"```", false).
		SetTimestamp(anomaly.CreatedAt).
		Build()
}
