package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"

	"group-chat/internal/domain"
	"group-chat/internal/service"
)

var errUsage = errors.New("usage")

type memberCreator interface {
	Create(ctx context.Context, member *domain.Member) error
}

// cli dispatches one chatctl subcommand and writes its result as JSON
type cli struct {
	svc     *service.GroupChatService
	members memberCreator
	migrate func(ctx context.Context) error
	out     io.Writer
	errOut  io.Writer
}

type command struct {
	summary string
	run     func(c *cli, ctx context.Context, args []string) error
}

var commands = map[string]command{
	"migrate":     {"apply the database schema", (*cli).runMigrate},
	"add-member":  {"register a member: -nickname", (*cli).runAddMember},
	"create-room": {"create a room: -owner -name", (*cli).runCreateRoom},
	"enter":       {"join a room: -room -member", (*cli).runEnter},
	"post":        {"post a message: -room -nickname -content", (*cli).runPost},
	"rooms":       {"list joined rooms: -member", (*cli).runRooms},
	"messages":    {"list visible messages: -room -member", (*cli).runMessages},
	"leave":       {"leave a room: -room -member", (*cli).runLeave},
}

func (c *cli) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		c.usage()
		return errUsage
	}

	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(c.errOut, "unknown command %q\n", args[0])
		c.usage()
		return errUsage
	}
	return cmd.run(c, ctx, args[1:])
}

func (c *cli) usage() {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(c.errOut, "usage: chatctl <command> [flags]")
	for _, name := range names {
		fmt.Fprintf(c.errOut, "  %-12s %s\n", name, commands[name].summary)
	}
}

func (c *cli) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.errOut)
	return fs
}

func (c *cli) parse(fs *flag.FlagSet, args []string, required ...string) error {
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	var missing []string
	for _, name := range required {
		if !set[name] {
			missing = append(missing, "-"+name)
		}
	}
	if len(missing) > 0 {
		fmt.Fprintf(c.errOut, "%s: missing %s\n", fs.Name(), strings.Join(missing, ", "))
		return errUsage
	}
	return nil
}

func (c *cli) print(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (c *cli) runMigrate(ctx context.Context, args []string) error {
	if err := c.parse(c.flags("migrate"), args); err != nil {
		return err
	}
	if err := c.migrate(ctx); err != nil {
		return err
	}
	return c.print(map[string]string{"status": "migrated"})
}

func (c *cli) runAddMember(ctx context.Context, args []string) error {
	fs := c.flags("add-member")
	nickname := fs.String("nickname", "", "member nickname")
	if err := c.parse(fs, args, "nickname"); err != nil {
		return err
	}

	member := &domain.Member{Nickname: strings.TrimSpace(*nickname)}
	if member.Nickname == "" {
		return fmt.Errorf("%w: empty nickname", domain.ErrInvalidInput)
	}
	if err := c.members.Create(ctx, member); err != nil {
		return err
	}
	return c.print(member)
}

func (c *cli) runCreateRoom(ctx context.Context, args []string) error {
	fs := c.flags("create-room")
	owner := fs.Int64("owner", 0, "owner member ID")
	name := fs.String("name", "", "room name")
	if err := c.parse(fs, args, "owner", "name"); err != nil {
		return err
	}

	roomID, err := c.svc.CreateRoom(ctx, *owner, *name)
	if err != nil {
		return err
	}
	return c.print(map[string]int64{"roomId": roomID})
}

func (c *cli) runEnter(ctx context.Context, args []string) error {
	fs := c.flags("enter")
	room := fs.Int64("room", 0, "room ID")
	member := fs.Int64("member", 0, "member ID")
	if err := c.parse(fs, args, "room", "member"); err != nil {
		return err
	}

	if err := c.svc.EnterRoom(ctx, *room, *member); err != nil {
		return err
	}
	return c.print(map[string]any{"roomId": *room, "memberId": *member, "status": "entered"})
}

func (c *cli) runPost(ctx context.Context, args []string) error {
	fs := c.flags("post")
	room := fs.Int64("room", 0, "room ID")
	nickname := fs.String("nickname", "", "sender nickname")
	content := fs.String("content", "", "message text")
	if err := c.parse(fs, args, "room", "nickname", "content"); err != nil {
		return err
	}

	msg, err := c.svc.PostMessage(ctx, &domain.PostMessageRequest{
		RoomID:         *room,
		SenderNickname: *nickname,
		Content:        *content,
	})
	if err != nil {
		return err
	}
	return c.print(newMessageView(msg))
}

func (c *cli) runRooms(ctx context.Context, args []string) error {
	fs := c.flags("rooms")
	member := fs.Int64("member", 0, "member ID")
	if err := c.parse(fs, args, "member"); err != nil {
		return err
	}

	rooms, err := c.svc.ListRooms(ctx, *member)
	if err != nil {
		return err
	}
	return c.print(roomViews(rooms))
}

func (c *cli) runMessages(ctx context.Context, args []string) error {
	fs := c.flags("messages")
	room := fs.Int64("room", 0, "room ID")
	member := fs.Int64("member", 0, "member ID")
	if err := c.parse(fs, args, "room", "member"); err != nil {
		return err
	}

	messages, err := c.svc.ListMessages(ctx, *room, *member)
	if err != nil {
		return err
	}
	return c.print(messageViews(messages))
}

func (c *cli) runLeave(ctx context.Context, args []string) error {
	fs := c.flags("leave")
	room := fs.Int64("room", 0, "room ID")
	member := fs.Int64("member", 0, "member ID")
	if err := c.parse(fs, args, "room", "member"); err != nil {
		return err
	}

	if err := c.svc.LeaveRoom(ctx, *room, *member); err != nil {
		return err
	}
	return c.print(map[string]any{"roomId": *room, "memberId": *member, "status": "left"})
}

// exitCode maps command errors to process exit codes
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage):
		return 2
	case errors.Is(err, domain.ErrRoomNotFound),
		errors.Is(err, domain.ErrMemberNotFound),
		errors.Is(err, domain.ErrMembershipNotFound):
		return 3
	case errors.Is(err, domain.ErrInvalidInput):
		return 4
	default:
		return 1
	}
}
