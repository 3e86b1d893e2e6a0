package bot

import (
	"strconv"
	"strings"
)

// Kind - типизированная команда. Текст сообщения разбирается ровно один
// раз на границе, дальше диспетчеризация идет по варианту, а не по строкам.
type Kind int

const (
	CmdUnknown Kind = iota
	CmdStart
	CmdClaim
	CmdDaily
	CmdStats
	CmdInvite
	CmdWithdraw
	CmdWallet
	CmdLeaders
	CmdHelp
	CmdWalletAddress // свободный текст, похожий на адрес кошелька

	// админские
	CmdAdminStats
	CmdAdminMailing
	CmdAdminAddBalance
	CmdAdminRemove
)

type Command struct {
	Kind Kind
	Arg  string // полезная нагрузка: id реферера, адрес, аргументы админских команд
}

// подписи кнопок клавиатуры
const (
	btnClaim    = "🌟 Collect"
	btnDaily    = "📅 Daily Reward"
	btnStats    = "📊 My Stats"
	btnInvite   = "👨‍👦‍👦 Invite"
	btnWithdraw = "💸 Cash Out"
	btnWallet   = "🔑 SUI Address"
	btnLeaders  = "🏆 Leaders"
	btnHelp     = "❓ Info"
)

// Parse разбирает входящий текст в команду
func Parse(text string) Command {
	text = strings.TrimSpace(text)

	switch text {
	case btnClaim:
		return Command{Kind: CmdClaim}
	case btnDaily:
		return Command{Kind: CmdDaily}
	case btnStats:
		return Command{Kind: CmdStats}
	case btnInvite:
		return Command{Kind: CmdInvite}
	case btnWithdraw:
		return Command{Kind: CmdWithdraw}
	case btnWallet:
		return Command{Kind: CmdWallet}
	case btnLeaders:
		return Command{Kind: CmdLeaders}
	case btnHelp:
		return Command{Kind: CmdHelp}
	}

	if strings.HasPrefix(text, "/") {
		cmd, arg := splitCommand(text)
		switch cmd {
		case "/start":
			return Command{Kind: CmdStart, Arg: arg}
		case "/stats":
			return Command{Kind: CmdAdminStats}
		case "/mailing":
			return Command{Kind: CmdAdminMailing, Arg: arg}
		case "/addbalance":
			return Command{Kind: CmdAdminAddBalance, Arg: arg}
		case "/removeuser":
			return Command{Kind: CmdAdminRemove, Arg: arg}
		}
		return Command{Kind: CmdUnknown}
	}

	// свободный текст достаточной длины считаем адресом кошелька,
	// как делал исходный бот
	if len(text) > 25 {
		return Command{Kind: CmdWalletAddress, Arg: text}
	}

	return Command{Kind: CmdUnknown}
}

func splitCommand(text string) (cmd, arg string) {
	parts := strings.SplitN(text, " ", 2)
	cmd = parts[0]
	// срезаем @botname у команды в группе
	if at := strings.Index(cmd, "@"); at > 0 {
		cmd = cmd[:at]
	}
	if len(parts) > 1 {
		arg = strings.TrimSpace(parts[1])
	}
	return cmd, arg
}

// ParseReferrer достает id пригласившего из аргумента /start
func ParseReferrer(arg string) *int64 {
	if arg == "" {
		return nil
	}
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return nil
	}
	return &id
}
