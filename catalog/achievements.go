package catalog

// Achievement type ids.
const (
	Coins100     = "coins_100"
	Coins500     = "coins_500"
	Coins1000    = "coins_1000"
	Streak7      = "streak_7"
	Streak30     = "streak_30"
	Streak90     = "streak_90"
	Questions50  = "questions_50"
	Questions100 = "questions_100"
)

// AchievementInfo describes how an achievement is shown to users.
type AchievementInfo struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

var achievementInfos = []AchievementInfo{
	{Type: Coins100, Name: "Century Club", Description: "Earned 100 coins"},
	{Type: Coins500, Name: "Coin Master", Description: "Earned 500 coins"},
	{Type: Coins1000, Name: "Treasure Hoarder", Description: "Earned 1000 coins"},
	{Type: Streak7, Name: "Week Warrior", Description: "7 day streak"},
	{Type: Streak30, Name: "Monthly Master", Description: "30 day streak"},
	{Type: Streak90, Name: "Winter Arc Master", Description: "90 day streak - Master!"},
	{Type: Questions50, Name: "Half Century", Description: "Completed 50 questions"},
	{Type: Questions100, Name: "Centurion", Description: "Completed 100 questions"},
}

// Achievements returns the display catalog, including display-only entries that are never awarded.
func Achievements() []AchievementInfo {
	return append([]AchievementInfo(nil), achievementInfos...)
}

// AchievementByType returns display metadata for a type. Unknown types fall back to the stored name.
func AchievementByType(t, storedName string) AchievementInfo {
	for _, a := range achievementInfos {
		if a.Type == t {
			return a
		}
	}
	return AchievementInfo{Type: t, Name: storedName, Description: storedName}
}
