package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"google.golang.org/grpc/status"

	"github.com/matheus3301/chatline/internal/control"
	"github.com/matheus3301/chatline/internal/instance"
)

func main() {
	instanceFlag := flag.String("instance", "", "instance name (overrides config default)")
	jsonFlag := flag.Bool("json", false, "output in JSON format")
	flag.Parse()

	name := instance.Resolve(*instanceFlag)
	if err := instance.ValidateName(name); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	c, err := control.Dial(instance.ControlSocketPath(name))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: cannot connect to chatlined for instance %q: %v\n", name, err)
		os.Exit(1)
	}
	defer func() { _ = c.Close() }()

	switch args[0] {
	case "status":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		cmdStatus(ctx, c, *jsonFlag)
	case "online":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		cmdOnline(ctx, c, *jsonFlag)
	case "kick":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: chatctl kick <user-id>")
			os.Exit(1)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		cmdKick(ctx, c, args[1])
	case "watch":
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		cmdWatch(ctx, c, *jsonFlag)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: chatctl [--instance <name>] [--json] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  status           Show server status")
	fmt.Fprintln(os.Stderr, "  online           List connected user ids")
	fmt.Fprintln(os.Stderr, "  kick <user-id>   Close a user's realtime connection")
	fmt.Fprintln(os.Stderr, "  watch            Stream presence changes")
}

func fail(err error) {
	if st, ok := status.FromError(err); ok {
		fmt.Fprintf(os.Stderr, "error: %s\n", st.Message())
	} else {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	os.Exit(1)
}

func cmdStatus(ctx context.Context, c *control.Client, jsonOut bool) {
	st, err := c.Status(ctx)
	if err != nil {
		fail(err)
	}
	if jsonOut {
		outputJSON(st)
		return
	}
	fmt.Printf("Instance: %s\n", st.Instance)
	fmt.Printf("Uptime:   %s\n", st.Uptime.Round(time.Second))
	fmt.Printf("Online:   %d\n", st.OnlineCount)
	fmt.Printf("Users:    %d\n", st.UserCount)
	fmt.Printf("Messages: %d\n", st.MessageCount)
}

func cmdOnline(ctx context.Context, c *control.Client, jsonOut bool) {
	ids, err := c.Online(ctx)
	if err != nil {
		fail(err)
	}
	if jsonOut {
		outputJSON(ids)
		return
	}
	if len(ids) == 0 {
		fmt.Println("No users online.")
		return
	}
	for _, id := range ids {
		fmt.Println(id)
	}
}

func cmdKick(ctx context.Context, c *control.Client, userID string) {
	if err := c.Kick(ctx, userID); err != nil {
		fail(err)
	}
	fmt.Printf("Disconnected %s\n", userID)
}

func cmdWatch(ctx context.Context, c *control.Client, jsonOut bool) {
	err := c.Watch(ctx, func(evt control.PresenceEvent) {
		if jsonOut {
			line, _ := json.Marshal(evt)
			fmt.Println(string(line))
			return
		}
		who := ""
		if evt.UserID != "" {
			who = " " + evt.UserID
		}
		fmt.Printf("%s %s%s online=[%s]\n",
			evt.OccurredAt.Format(time.TimeOnly), evt.Reason, who, strings.Join(evt.Online, ","))
	})
	if err != nil {
		fail(err)
	}
}

func outputJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
