package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
)

// прогресс рассылки обновляем каждые N отправок
const broadcastProgressEvery = 100

func (b *Bot) handleAdmin(ctx context.Context, msg *tgbotapi.Message, cmd Command) {
	switch cmd.Kind {
	case CmdAdminStats:
		b.handleAdminStats(ctx, msg.Chat.ID)
	case CmdAdminMailing:
		b.handleMailing(msg.Chat.ID, cmd.Arg)
	case CmdAdminAddBalance:
		b.handleAddBalance(ctx, msg.Chat.ID, cmd.Arg)
	case CmdAdminRemove:
		b.handleRemoveUser(ctx, msg.Chat.ID, cmd.Arg)
	}
}

func (b *Bot) handleAdminStats(ctx context.Context, chatID int64) {
	stats, err := b.admin.Stats(ctx)
	if err != nil {
		b.log.Error("статистика не собралась", "error", err)
		b.reply(chatID, "❌ Error getting statistics!")
		return
	}

	b.reply(chatID, fmt.Sprintf(`📊 Bot Statistics:

👨‍👦‍👦 Total Users: %d
✨ Active Users (24h): %d
📊 Total SUI Earned: %s
💾 Cached Users: %d`,
		stats.TotalUsers, stats.ActiveUsers, stats.TotalEarned.StringFixed(2), stats.CachedUsers))
}

// handleMailing рассылает сообщение всем пользователям с прогрессом.
// Сама рассылка живет дольше таймаута одного обработчика, поэтому
// контекст обработчика в нее не передается: сервис работает на
// собственных таймаутах, остановку дает stopCh.
func (b *Bot) handleMailing(chatID int64, text string) {
	if text == "" {
		b.reply(chatID, "Usage: /mailing <message>")
		return
	}

	body := "📢 Announcement:\n\n" + text

	// сообщение прогресса отправляем при первом вызове колбэка,
	// его же потом редактируем
	var progressID int
	rep, err := b.admin.Broadcast(b, body, b.stopCh, func(done, total int) {
		if done == 0 {
			msg, err := b.api.Send(tgbotapi.NewMessage(chatID,
				fmt.Sprintf("📤 Mailing to %d users...", total)))
			if err != nil {
				b.log.Warn("не отправили сообщение прогресса", "error", err)
				return
			}
			progressID = msg.MessageID
			return
		}
		if progressID != 0 && done%broadcastProgressEvery == 0 {
			_ = b.EditMessage(chatID, progressID,
				fmt.Sprintf("📤 Mailing: %d/%d...", done, total))
		}
	})
	if err != nil {
		b.log.Error("не получили получателей рассылки", "error", err)
		b.reply(chatID, errorText)
		return
	}
	if rep.Total == 0 {
		b.reply(chatID, "No users to mail")
		return
	}
	if rep.Aborted {
		b.log.Warn("рассылка прервана остановкой бота", "sent", rep.Success)
		return
	}

	summary := fmt.Sprintf(`✅ Mailing completed:
Success: %d
Failed: %d
Blocked bot: %d`, rep.Success, rep.Failed, rep.Blocked)

	if progressID != 0 {
		_ = b.EditMessage(chatID, progressID, summary)
	} else {
		b.reply(chatID, summary)
	}
}

func (b *Bot) handleAddBalance(ctx context.Context, chatID int64, args string) {
	parts := strings.Fields(args)
	if len(parts) != 2 {
		b.reply(chatID, "Usage: /addbalance <user_id> <amount>")
		return
	}

	userID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		b.reply(chatID, "Invalid user id")
		return
	}
	amount, err := decimal.NewFromString(parts[1])
	if err != nil || amount.IsNegative() {
		b.reply(chatID, "Invalid amount")
		return
	}

	ok, err := b.admin.AddBalance(ctx, userID, amount)
	if err != nil {
		b.log.Error("начисление не прошло", "user_id", userID, "error", err)
		b.reply(chatID, errorText)
		return
	}
	if !ok {
		b.reply(chatID, fmt.Sprintf("User %d not found", userID))
		return
	}
	b.reply(chatID, fmt.Sprintf("✅ Added %s SUI to user %d", amount, userID))
}

func (b *Bot) handleRemoveUser(ctx context.Context, chatID int64, args string) {
	userID, err := strconv.ParseInt(strings.TrimSpace(args), 10, 64)
	if err != nil {
		b.reply(chatID, "Usage: /removeuser <user_id>")
		return
	}

	ok, err := b.admin.RemoveAccount(ctx, userID)
	if err != nil {
		b.log.Error("удаление не прошло", "user_id", userID, "error", err)
		b.reply(chatID, errorText)
		return
	}
	if !ok {
		b.reply(chatID, fmt.Sprintf("User %d not found", userID))
		return
	}
	b.reply(chatID, fmt.Sprintf("🗑 User %d removed", userID))
}
