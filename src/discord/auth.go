package discord

import "github.com/bwmarrin/discordgo"

// MemberFetcher is the part of *discordgo.Session used to look up a member's roles.
type MemberFetcher interface {
	GuildMember(guildID, userID string, options ...discordgo.RequestOption) (*discordgo.Member, error)
}

// MemberHasRole checks the roles carried on member. Empty roleID always returns true.
func MemberHasRole(member *discordgo.Member, roleID string) bool {
	if roleID == "" {
		return true
	}
	if member == nil {
		return false
	}
	for _, role := range member.Roles {
		if role == roleID {
			return true
		}
	}
	return false
}

// DisplayName is the name the bot records as a proposal or vote author:
// guild nickname, then global display name, then username.
func DisplayName(member *discordgo.Member, user *discordgo.User) string {
	if member != nil && member.Nick != "" {
		return member.Nick
	}
	if user == nil && member != nil {
		user = member.User
	}
	if user == nil {
		return ""
	}
	if user.GlobalName != "" {
		return user.GlobalName
	}
	return user.Username
}
