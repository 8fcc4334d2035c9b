package protocol

import "strconv"

// Command is the single-byte code selecting a frame's meaning.
// New codes are appended only; unknown codes are ignored by receivers.
type Command uint8

const (
	CmdAuth          Command = iota // client → server: base64("login@password")
	CmdAuthOK                       // server → client: handshake accepted
	CmdFormSubmitted                // client → server: player closed the turn form
	CmdGetUserList                  // server → client: comma separated player list
	CmdFormClosedOK                 // server → client: remote form closed
	CmdGetContract                  // client → server: request contracts for open markets
	CmdGetContractOK                // server → client: contract info text
	CmdMarketClosed                 // server → client: market finished, info text
	CmdAuctionStarted
	CmdAuctionAmount
	CmdAuctionWin
	CmdAuctionLose
	CmdReport
	CmdError // server → client: error text ("Unauthorized" ends the session)
)

// UnauthorizedMessage is the error payload the server sends for bad credentials.
const UnauthorizedMessage = "Unauthorized"

var commandNames = [...]string{
	CmdAuth:           "auth",
	CmdAuthOK:         "auth-ok",
	CmdFormSubmitted:  "form-submitted",
	CmdGetUserList:    "get-user-list",
	CmdFormClosedOK:   "form-closed-ok",
	CmdGetContract:    "get-contract",
	CmdGetContractOK:  "get-contract-ok",
	CmdMarketClosed:   "market-closed",
	CmdAuctionStarted: "auction-started",
	CmdAuctionAmount:  "auction-amount",
	CmdAuctionWin:     "auction-win",
	CmdAuctionLose:    "auction-lose",
	CmdReport:         "report",
	CmdError:          "error",
}

// Known reports whether c is part of the command enumeration.
func (c Command) Known() bool {
	return int(c) < len(commandNames)
}

// String returns the kebab-case command name, or "unknown-N".
func (c Command) String() string {
	if c.Known() {
		return commandNames[c]
	}
	return "unknown-" + strconv.Itoa(int(c))
}

// ParseCommand maps a command name back to its code.
func ParseCommand(name string) (Command, bool) {
	for i, n := range commandNames {
		if n == name {
			return Command(i), true
		}
	}
	return 0, false
}
