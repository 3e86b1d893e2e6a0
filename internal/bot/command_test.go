package bot

import "testing"

func TestParse_KeyboardButtons(t *testing.T) {
	cases := map[string]Kind{
		btnClaim:    CmdClaim,
		btnDaily:    CmdDaily,
		btnStats:    CmdStats,
		btnInvite:   CmdInvite,
		btnWithdraw: CmdWithdraw,
		btnWallet:   CmdWallet,
		btnLeaders:  CmdLeaders,
		btnHelp:     CmdHelp,
	}
	for text, want := range cases {
		if got := Parse(text); got.Kind != want {
			t.Fatalf("Parse(%q) = %d, ожидалось %d", text, got.Kind, want)
		}
	}
}

func TestParse_StartWithReferrer(t *testing.T) {
	cmd := Parse("/start 12345")
	if cmd.Kind != CmdStart || cmd.Arg != "12345" {
		t.Fatalf("неверный разбор /start: %+v", cmd)
	}

	ref := ParseReferrer(cmd.Arg)
	if ref == nil || *ref != 12345 {
		t.Fatalf("id реферера не разобрался")
	}
}

func TestParse_StartWithoutArg(t *testing.T) {
	cmd := Parse("/start")
	if cmd.Kind != CmdStart || cmd.Arg != "" {
		t.Fatalf("неверный разбор /start без аргумента: %+v", cmd)
	}
	if ParseReferrer("") != nil {
		t.Fatalf("пустой аргумент - нет реферера")
	}
}

func TestParseReferrer_Garbage(t *testing.T) {
	for _, arg := range []string{"abc", "-5", "0", "12x"} {
		if ParseReferrer(arg) != nil {
			t.Fatalf("мусорный аргумент %q не должен давать реферера", arg)
		}
	}
}

func TestParse_WalletAddress(t *testing.T) {
	addr := "0x337c26191d7d2874ffbca5911a2dd1126b4ceaa12a279f1d232b7856da6ccd88"
	cmd := Parse(addr)
	if cmd.Kind != CmdWalletAddress || cmd.Arg != addr {
		t.Fatalf("длинный текст должен считаться адресом: %+v", cmd)
	}

	// короткий текст - не адрес
	if Parse("hello").Kind != CmdUnknown {
		t.Fatalf("короткий текст не должен считаться адресом")
	}

	// команда не может быть адресом, какой бы длинной ни была
	if Parse("/averyveryverylongcommandname12345").Kind == CmdWalletAddress {
		t.Fatalf("команда не должна считаться адресом")
	}
}

func TestParse_AdminCommands(t *testing.T) {
	cmd := Parse("/mailing Hello everyone")
	if cmd.Kind != CmdAdminMailing || cmd.Arg != "Hello everyone" {
		t.Fatalf("неверный разбор /mailing: %+v", cmd)
	}

	cmd = Parse("/addbalance 42 10.5")
	if cmd.Kind != CmdAdminAddBalance || cmd.Arg != "42 10.5" {
		t.Fatalf("неверный разбор /addbalance: %+v", cmd)
	}

	if Parse("/stats").Kind != CmdAdminStats {
		t.Fatalf("/stats должен разбираться")
	}
	if Parse("/removeuser 42").Kind != CmdAdminRemove {
		t.Fatalf("/removeuser должен разбираться")
	}
}

func TestParse_CommandWithBotName(t *testing.T) {
	if Parse("/start@sui_capital_bot 77").Kind != CmdStart {
		t.Fatalf("команда с именем бота должна разбираться")
	}
}

func TestParse_Unknown(t *testing.T) {
	if Parse("/frobnicate").Kind != CmdUnknown {
		t.Fatalf("неизвестная команда - CmdUnknown")
	}
	if Parse("hi").Kind != CmdUnknown {
		t.Fatalf("произвольный короткий текст - CmdUnknown")
	}
}
