package bot

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"sui_reward_bot/internal/domain"
	"sui_reward_bot/internal/logger"
	"sui_reward_bot/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const handlerTimeout = 30 * time.Second

// Bot - адаптер Telegram: принимает сообщения, разбирает их в команды
// на границе и зовет сервисы. Вся логика наград живет не здесь.
type Bot struct {
	api      *tgbotapi.BotAPI
	accounts *service.AccountService
	admin    *service.AdminService
	adminIDs []int64
	keyboard tgbotapi.ReplyKeyboardMarkup

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
	log     *slog.Logger
}

func New(token string, accounts *service.AccountService, admin *service.AdminService, adminIDs []int64) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log := logger.With("component", "bot")
	log.Info("bot authorized", "username", api.Self.UserName)

	b := &Bot{
		api:      api,
		accounts: accounts,
		admin:    admin,
		adminIDs: adminIDs,
		keyboard: mainKeyboard(),
		stopCh:   make(chan struct{}),
		log:      log,
	}

	// уведомление пригласившему о новом реферале
	accounts.SetReferralNotifyCallback(func(referrerID int64) {
		if err := b.SendMessage(referrerID, referralNotifyText(accounts.Schedule())); err != nil {
			b.log.Warn("не доставили уведомление о реферале", "referrer_id", referrerID, "error", err)
		}
	})

	return b, nil
}

// Start запускает цикл обработки обновлений. Блокируется до Stop.
func (b *Bot) Start() {
	b.mu.Lock()
	if b.running {
		b.mu.Unlock()
		return
	}
	b.running = true
	b.mu.Unlock()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	logger.Info("запуск цикла обновлений бота")

	for {
		select {
		case <-b.stopCh:
			logger.Info("остановка цикла обновлений бота")
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil || update.Message.From == nil {
				continue
			}

			b.wg.Add(1)
			go func(msg *tgbotapi.Message) {
				defer b.wg.Done()
				b.handleMessage(msg)
			}(update.Message)
		}
	}
}

// Stop останавливает бота, дожидаясь обработчиков в полете.
// Повторные вызовы безопасны.
func (b *Bot) Stop() {
	b.mu.Lock()
	if b.running {
		close(b.stopCh)
		b.running = false
	}
	b.mu.Unlock()
	b.wg.Wait()
}

// SendMessage реализует service.Messenger
func (b *Bot) SendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := b.api.Send(msg)
	return err
}

// EditMessage реализует service.Messenger (прогресс рассылки)
func (b *Bot) EditMessage(chatID int64, messageID int, text string) error {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	_, err := b.api.Send(edit)
	return err
}

func (b *Bot) isAdmin(userID int64) bool {
	for _, id := range b.adminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (b *Bot) handleMessage(msg *tgbotapi.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	userID := msg.From.ID
	cmd := Parse(msg.Text)

	// /start - единственная команда, создающая аккаунт
	if cmd.Kind == CmdStart {
		b.handleStart(ctx, msg, cmd.Arg)
		return
	}

	// админские команды не требуют аккаунта
	switch cmd.Kind {
	case CmdAdminStats, CmdAdminMailing, CmdAdminAddBalance, CmdAdminRemove:
		if !b.isAdmin(userID) {
			// не-админам эти команды не показываем вообще
			return
		}
		b.handleAdmin(ctx, msg, cmd)
		return
	}

	acc, err := b.accounts.Get(ctx, userID)
	if err != nil {
		logger.Error("не смогли получить аккаунт", "user_id", userID, "error", err)
		b.reply(msg.Chat.ID, retryText)
		return
	}
	if acc == nil {
		b.reply(msg.Chat.ID, startHintText)
		return
	}

	switch cmd.Kind {
	case CmdClaim:
		b.handleClaim(ctx, msg.Chat.ID, userID)
	case CmdDaily:
		b.handleDaily(ctx, msg.Chat.ID, userID)
	case CmdStats:
		b.reply(msg.Chat.ID, statsText(acc))
	case CmdInvite:
		b.reply(msg.Chat.ID, inviteText(b.api.Self.UserName, acc, b.accounts.Schedule()))
	case CmdWithdraw:
		b.handleWithdraw(ctx, msg.Chat.ID, userID)
	case CmdWallet:
		b.reply(msg.Chat.ID, walletPromptText)
	case CmdWalletAddress:
		b.handleWalletAddress(ctx, msg.Chat.ID, userID, cmd.Arg)
	case CmdLeaders:
		b.handleLeaders(ctx, msg.Chat.ID)
	case CmdHelp:
		b.reply(msg.Chat.ID, helpText)
	default:
		b.reply(msg.Chat.ID, startHintText)
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message, arg string) {
	userID := msg.From.ID
	username := msg.From.UserName
	if username == "" {
		username = "Anonymous"
	}

	acc, created, err := b.accounts.GetOrCreate(ctx, userID, username, ParseReferrer(arg))
	if err != nil {
		logger.Error("старт не удался", "user_id", userID, "error", err)
		b.reply(msg.Chat.ID, retryText)
		return
	}

	referred := created && acc.ReferredBy != nil
	reply := tgbotapi.NewMessage(msg.Chat.ID, welcomeText(referred, b.accounts.Schedule()))
	reply.ReplyMarkup = b.keyboard
	if _, err := b.api.Send(reply); err != nil {
		logger.Warn("не отправили приветствие", "user_id", userID, "error", err)
	}
}

func (b *Bot) handleClaim(ctx context.Context, chatID, userID int64) {
	res, err := b.accounts.Claim(ctx, userID)
	if err != nil {
		b.replyServiceError(chatID, userID, err)
		return
	}
	if !res.Accepted {
		b.reply(chatID, claimWaitText(res.Remaining))
		return
	}
	b.reply(chatID, claimedText(b.accounts.Schedule().ClaimAmount, res.Account.Balance))
}

func (b *Bot) handleDaily(ctx context.Context, chatID, userID int64) {
	res, err := b.accounts.Daily(ctx, userID)
	if err != nil {
		b.replyServiceError(chatID, userID, err)
		return
	}
	if !res.Accepted {
		b.reply(chatID, dailyWaitText(res.Remaining))
		return
	}
	b.reply(chatID, dailyText(b.accounts.Schedule().DailyAmount, res.Account.Balance))
}

func (b *Bot) handleWithdraw(ctx context.Context, chatID, userID int64) {
	res, err := b.accounts.RequestWithdraw(ctx, userID)
	if err != nil {
		b.replyServiceError(chatID, userID, err)
		return
	}
	b.reply(chatID, withdrawText(res.Check, res.Account, res.RequestID, b.accounts.Schedule()))
}

func (b *Bot) handleWalletAddress(ctx context.Context, chatID, userID int64, address string) {
	err := b.accounts.SetWallet(ctx, userID, address)
	if errors.Is(err, service.ErrInvalidWallet) {
		// до сюда не должно доходить - парсер отсекает короткие строки
		b.reply(chatID, walletPromptText)
		return
	}
	if err != nil {
		b.replyServiceError(chatID, userID, err)
		return
	}
	b.reply(chatID, walletSavedText)
}

func (b *Bot) handleLeaders(ctx context.Context, chatID int64) {
	top, err := b.accounts.Leaderboard(ctx, 10)
	if err != nil {
		logger.Error("лидерборд не загрузился", "error", err)
		b.reply(chatID, "❌ Error loading ranking!")
		return
	}
	b.reply(chatID, leadersText(top))
}

func (b *Bot) replyServiceError(chatID, userID int64, err error) {
	if errors.Is(err, domain.ErrAccountNotFound) {
		b.reply(chatID, startHintText)
		return
	}
	logger.Error("сервис вернул ошибку", "user_id", userID, "error", err)
	b.reply(chatID, errorText)
}

func (b *Bot) reply(chatID int64, text string) {
	if err := b.SendMessage(chatID, text); err != nil {
		logger.Warn("ответ не доставлен", "chat_id", chatID, "error", err)
	}
}
