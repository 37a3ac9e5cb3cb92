package bot

// Bot command names.
const (
	CommandStart        = "/start"
	CommandHelp         = "/help"
	CommandBalance      = "/balance"
	CommandInvite       = "/invite"
	CommandLeaderboard  = "/leaderboard"
	CommandBuyLootBox   = "/buylootbox"
	CommandOpenLootBox  = "/openlootbox"
	CommandInventory    = "/inventory"
	CommandEditWallet   = "/editwallet"
	CommandSwitchWallet = "/switchwallet"
	CommandUnlockWallet = "/unlockwallet"

	CommandAddPoints        = "/addpoints"
	CommandSetPoints        = "/setpoints"
	CommandAddItems         = "/additems"
	CommandAnnounce         = "/announce"
	CommandEditAnnouncement = "/edit"
	CommandExportWallets    = "/exportwallets"
	CommandExportData       = "/exportdata"
	CommandImportData       = "/importdata"
)
