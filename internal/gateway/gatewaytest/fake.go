// Package gatewaytest provides an in-memory gateway.Session for tests.
package gatewaytest

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// Call records one mutating request made through the fake.
type Call struct {
	Method string
	Args   []string
}

// Session is a fake gateway.Session backed by a real discordgo.State.
// REST lookups answer from the Users, Messages and Bans maps; unknown IDs
// return a 404 RESTError. Mutations are recorded in Calls and fail with
// the matching entry of Fail when set.
type Session struct {
	mu sync.Mutex

	State    *discordgo.State
	Users    map[string]*discordgo.User
	Messages map[string]*discordgo.Message
	Channels map[string]*discordgo.Channel
	Bans     map[string][]*discordgo.GuildBan
	Fail     map[string]error

	Calls []Call
	Sent  []*discordgo.Message

	nextID int
}

// New returns a fake whose state holds one available guild.
func New(guildID string) *Session {
	st := discordgo.NewState()
	st.User = &discordgo.User{ID: "bot", Username: "bot", Bot: true}
	_ = st.GuildAdd(&discordgo.Guild{ID: guildID, Name: "test guild"})
	return &Session{
		State:    st,
		Users:    make(map[string]*discordgo.User),
		Messages: make(map[string]*discordgo.Message),
		Channels: make(map[string]*discordgo.Channel),
		Bans:     make(map[string][]*discordgo.GuildBan),
		Fail:     make(map[string]error),
	}
}

// AddUser makes a user resolvable over REST.
func (s *Session) AddUser(u *discordgo.User) {
	s.Users[u.ID] = u
}

// AddMember caches a guild member (and its user) in the state.
func (s *Session) AddMember(guildID string, u *discordgo.User, roles ...string) *discordgo.Member {
	s.AddUser(u)
	m := &discordgo.Member{GuildID: guildID, User: u, Roles: roles}
	_ = s.State.MemberAdd(m)
	return m
}

// AddRole caches a role in the guild.
func (s *Session) AddRole(guildID string, r *discordgo.Role) {
	_ = s.State.RoleAdd(guildID, r)
}

// AddChannel caches a channel in the state.
func (s *Session) AddChannel(c *discordgo.Channel) {
	s.Channels[c.ID] = c
	_ = s.State.ChannelAdd(c)
}

// CallsTo returns recorded calls of one method.
func (s *Session) CallsTo(method string) []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Call
	for _, c := range s.Calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// SentContents returns the content of every message sent so far.
func (s *Session) SentContents() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.Sent))
	for _, m := range s.Sent {
		out = append(out, m.Content)
	}
	return out
}

func (s *Session) record(method string, args ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls = append(s.Calls, Call{Method: method, Args: args})
	return s.Fail[method]
}

func (s *Session) send(channelID string, m *discordgo.Message) *discordgo.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	m.ID = fmt.Sprintf("sent-%d", s.nextID)
	m.ChannelID = channelID
	s.Sent = append(s.Sent, m)
	return m
}

// NotFound builds the error discordgo returns for a 404.
func NotFound() error {
	return &discordgo.RESTError{
		Response:     &http.Response{StatusCode: http.StatusNotFound, Status: "404 Not Found"},
		ResponseBody: []byte(`{"message":"Unknown"}`),
	}
}

func (s *Session) GetState() *discordgo.State { return s.State }

func (s *Session) User(userID string, _ ...discordgo.RequestOption) (*discordgo.User, error) {
	if err := s.Fail["User"]; err != nil {
		return nil, err
	}
	if u, ok := s.Users[userID]; ok {
		return u, nil
	}
	return nil, NotFound()
}

func (s *Session) Channel(channelID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	if c, ok := s.Channels[channelID]; ok {
		return c, nil
	}
	return nil, NotFound()
}

func (s *Session) UserChannelCreate(recipientID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	if err := s.record("UserChannelCreate", recipientID); err != nil {
		return nil, err
	}
	return &discordgo.Channel{ID: "dm-" + recipientID, Type: discordgo.ChannelTypeDM}, nil
}

func (s *Session) ChannelMessage(channelID, messageID string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	if err := s.record("ChannelMessage", channelID, messageID); err != nil {
		return nil, err
	}
	if m, ok := s.Messages[messageID]; ok {
		return m, nil
	}
	return nil, NotFound()
}

func (s *Session) ChannelMessages(channelID string, limit int, _, _, _ string, _ ...discordgo.RequestOption) ([]*discordgo.Message, error) {
	if err := s.record("ChannelMessages", channelID, fmt.Sprint(limit)); err != nil {
		return nil, err
	}
	var out []*discordgo.Message
	for _, m := range s.Messages {
		if m.ChannelID == channelID && len(out) < limit {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *Session) ChannelMessagesBulkDelete(channelID string, messages []string, _ ...discordgo.RequestOption) error {
	return s.record("ChannelMessagesBulkDelete", append([]string{channelID}, messages...)...)
}

func (s *Session) ChannelMessageSend(channelID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	if err := s.record("ChannelMessageSend", channelID, content); err != nil {
		return nil, err
	}
	return s.send(channelID, &discordgo.Message{Content: content}), nil
}

func (s *Session) ChannelMessageSendReply(channelID, content string, ref *discordgo.MessageReference, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	if err := s.record("ChannelMessageSendReply", channelID, content); err != nil {
		return nil, err
	}
	return s.send(channelID, &discordgo.Message{Content: content, MessageReference: ref}), nil
}

func (s *Session) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	if err := s.record("ChannelMessageSendEmbed", channelID, embed.Description); err != nil {
		return nil, err
	}
	return s.send(channelID, &discordgo.Message{Embeds: []*discordgo.MessageEmbed{embed}}), nil
}

func (s *Session) GuildMemberAdd(guildID, userID string, data *discordgo.GuildMemberAddParams, _ ...discordgo.RequestOption) error {
	if err := s.record("GuildMemberAdd", guildID, userID, data.AccessToken, data.Nick); err != nil {
		return err
	}
	_ = s.State.MemberAdd(&discordgo.Member{GuildID: guildID, User: s.Users[userID], Nick: data.Nick, Roles: data.Roles})
	return nil
}

func (s *Session) GuildMemberDeleteWithReason(guildID, userID, reason string, _ ...discordgo.RequestOption) error {
	return s.record("GuildMemberDeleteWithReason", guildID, userID, reason)
}

func (s *Session) GuildMemberNickname(guildID, userID, nickname string, _ ...discordgo.RequestOption) error {
	return s.record("GuildMemberNickname", guildID, userID, nickname)
}

func (s *Session) GuildMemberRoleAdd(guildID, userID, roleID string, _ ...discordgo.RequestOption) error {
	return s.record("GuildMemberRoleAdd", guildID, userID, roleID)
}

func (s *Session) GuildMemberRoleRemove(guildID, userID, roleID string, _ ...discordgo.RequestOption) error {
	return s.record("GuildMemberRoleRemove", guildID, userID, roleID)
}

func (s *Session) GuildBanCreateWithReason(guildID, userID, reason string, days int, _ ...discordgo.RequestOption) error {
	if err := s.record("GuildBanCreateWithReason", guildID, userID, reason); err != nil {
		return err
	}
	s.Bans[guildID] = append(s.Bans[guildID], &discordgo.GuildBan{Reason: reason, User: &discordgo.User{ID: userID}})
	return nil
}

func (s *Session) GuildBanDelete(guildID, userID string, _ ...discordgo.RequestOption) error {
	return s.record("GuildBanDelete", guildID, userID)
}

func (s *Session) GuildBans(guildID string, _ int, _, _ string, _ ...discordgo.RequestOption) ([]*discordgo.GuildBan, error) {
	if err := s.record("GuildBans", guildID); err != nil {
		return nil, err
	}
	return s.Bans[guildID], nil
}
