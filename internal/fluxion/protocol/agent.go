package protocol

import (
	"net"

	"golang.org/x/crypto/ssh/agent"
)

// dialAgent connects to the running ssh-agent at sock and returns its
// ExtendedAgent, from which ssh.PublicKeysCallback draws signers.
func dialAgent(sock string) (agent.ExtendedAgent, error) {
	conn, err := net.Dial("unix", sock)
	if err != nil {
		return nil, err
	}
	return agent.NewClient(conn), nil
}
