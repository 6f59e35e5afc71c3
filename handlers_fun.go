package main

import (
	"context"
	"fmt"
	"math/rand"

	"go.mau.fi/whatsmeow/types/events"
)

func init() {
	register(&Command{Name: "dice", Category: "Fun", Execute: cmdDice})
	register(&Command{Name: "flip", Category: "Fun", Execute: cmdFlip})
	register(&Command{Name: "truth", Category: "Fun", Execute: cmdTruth})
	register(&Command{Name: "dare", Category: "Fun", Execute: cmdDare})
}

func cmdDice(ctx context.Context, b *Bot, v *events.Message, args []string) {
	b.react(ctx, v, "🎲")
	b.replyFake(ctx, v, fmt.Sprintf("🎲 You rolled a *%d*!", rand.Intn(6)+1))
}

func cmdFlip(ctx context.Context, b *Bot, v *events.Message, args []string) {
	b.react(ctx, v, "🪙")
	side := "Heads"
	if rand.Intn(2) == 1 {
		side = "Tails"
	}
	b.replyFake(ctx, v, "🪙 *"+side+"*!")
}

var truths = []string{
	"What is the last lie you told?",
	"What is your most embarrassing moment in this group?",
	"Who in this group would you call at 3am?",
	"What is a secret talent nobody here knows about?",
	"What was your last search engine query?",
}

var dares = []string{
	"Send the last photo in your gallery.",
	"Change your status to 'I love this group' for one hour.",
	"Voice note yourself singing the chorus of your favorite song.",
	"Type the next message with your eyes closed.",
	"Send your battery percentage screenshot.",
}

func cmdTruth(ctx context.Context, b *Bot, v *events.Message, args []string) {
	b.react(ctx, v, "🫢")
	b.replyFake(ctx, v, "🫢 *Truth:* "+truths[rand.Intn(len(truths))])
}

func cmdDare(ctx context.Context, b *Bot, v *events.Message, args []string) {
	b.react(ctx, v, "😈")
	b.replyFake(ctx, v, "😈 *Dare:* "+dares[rand.Intn(len(dares))])
}
