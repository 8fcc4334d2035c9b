package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/rickgao/bizsim-client/internal/model"
	"github.com/rickgao/bizsim-client/internal/protocol"
)

var errEmptyLine = errors.New("empty line")

// request is one outbound frame typed at the console.
type request struct {
	cmd     protocol.Command
	payload []byte
}

// parseRequest turns a console line into a frame. login fills the form payload.
func parseRequest(line, login string) (request, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return request{}, errEmptyLine
	}

	rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), fields[0]))

	switch strings.ToLower(fields[0]) {
	case "form":
		return request{cmd: protocol.CmdFormSubmitted, payload: protocol.FormPayload(login)}, nil

	case "contract":
		if len(fields) < 2 {
			return request{}, errors.New("usage: contract <market>...")
		}
		return request{cmd: protocol.CmdGetContract, payload: protocol.ContractRequestPayload(fields[1:])}, nil

	case "users":
		return request{cmd: protocol.CmdGetUserList}, nil

	case "report":
		return request{cmd: protocol.CmdReport, payload: []byte(rest)}, nil

	case "send":
		if len(fields) < 2 {
			return request{}, errors.New("usage: send <command> [text]")
		}
		cmd, ok := protocol.ParseCommand(fields[1])
		if !ok {
			return request{}, fmt.Errorf("unknown command %q", fields[1])
		}
		text := strings.TrimSpace(strings.TrimPrefix(rest, fields[1]))
		return request{cmd: cmd, payload: []byte(text)}, nil

	default:
		return request{}, fmt.Errorf("unknown request %q", fields[0])
	}
}

// readConsole sends one request per input line until in is exhausted.
func readConsole(in io.Reader, c *client, logger *slog.Logger) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		req, err := parseRequest(scanner.Text(), c.login())
		if errors.Is(err, errEmptyLine) {
			continue
		}
		if err != nil {
			logger.Warn("bad request", "error", err)
			continue
		}
		if err := c.mgr.Send(req.cmd, req.payload); err != nil {
			logger.Warn("request not sent", "command", req.cmd.String(), "error", err)
			continue
		}
		logger.Debug("request queued", "command", req.cmd.String(), "len", len(req.payload))
	}
}

// logEvent prints one relay event.
func logEvent(logger *slog.Logger, ev model.Event) {
	logger = logger.With("session", ev.SessionID.String())

	switch ev.Kind {
	case model.KindState:
		level := slog.LevelInfo
		if ev.State == model.StateInvalidLogin {
			level = slog.LevelWarn
		}
		logger.Log(context.Background(), level, "connection state", "state", ev.State.String(), "forced", ev.Forced)
	case model.KindUserList:
		logger.Info("players", "users", strings.Split(ev.Text, ","))
	case model.KindContractInfo:
		logger.Info("contract info", "command", ev.Command.String(), "text", ev.Text)
	case model.KindFormClosed:
		logger.Info("form closed")
	case model.KindServerError:
		logger.Warn("server error", "text", ev.Text)
	default:
		logger.Debug("unhandled event", "kind", ev.Kind.String())
	}
}
