// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"fmt"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Id int

const (
	PackageManagerNotFoundId Id = iota + 1
	SSHDaemonNotFoundId
	DistroToolNotFoundId
	MeshClientNotFoundId
	TunnelClientNotFoundId
	MultiplexerNotFoundId
	ConfigLoadFailedId
	UnsupportedEnvironmentId
)

type MarkdownMsg string

type HttpLink string

// Issue describes a known failure class with a rendered explanation.
type Issue struct {
	id       Id
	mdMsg    MarkdownMsg
	docLinks []HttpLink // upstream documentation for the involved tool
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

// Render produces the terminal-ready explanation for this issue.
func (i *Issue) Render() (string, error) {
	md := string(i.mdMsg)
	if len(i.docLinks) > 0 {
		md += "\n\n**See also:**\n"
		for _, link := range i.docLinks {
			md += "- " + string(link) + "\n"
		}
	}
	return render(md)
}

// render is swappable in tests to avoid terminal detection.
var render = func(md string) (string, error) {
	return glamour.Render(md, "auto")
}

var registry = map[Id]*Issue{
	PackageManagerNotFoundId: {
		id: PackageManagerNotFoundId,
		mdMsg: "## No package manager found\n\n" +
			"Neither `pkg` (Termux) nor `apt-get` is on your PATH. " +
			"termhost needs one of them to install the server packages " +
			"(openssh, tmux, proot-distro).\n\n" +
			"On Termux this usually means the bootstrap is broken; reinstall " +
			"the Termux app or run `termux-change-repo`.",
		docLinks: []HttpLink{"https://wiki.termux.com/wiki/Package_Management"},
	},
	SSHDaemonNotFoundId: {
		id: SSHDaemonNotFoundId,
		mdMsg: "## sshd not installed\n\n" +
			"The OpenSSH daemon is missing. Run `termhost up` (or " +
			"`pkg install openssh`) to install it, or use the built-in " +
			"fallback server: `termhost sshd serve`.",
		docLinks: []HttpLink{"https://wiki.termux.com/wiki/Remote_Access"},
	},
	DistroToolNotFoundId: {
		id: DistroToolNotFoundId,
		mdMsg: "## proot-distro not installed\n\n" +
			"The container bootstrap tool `proot-distro` is missing, so no " +
			"Linux distribution can be installed into the user-space sandbox. " +
			"Run `termhost up` or `pkg install proot-distro`.",
		docLinks: []HttpLink{"https://github.com/termux/proot-distro"},
	},
	MeshClientNotFoundId: {
		id: MeshClientNotFoundId,
		mdMsg: "## tailscale not installed\n\n" +
			"The VPN mesh client is missing. Install it with " +
			"`pkg install tailscale` (Termux) or from the Tailscale " +
			"packages page, then rerun `termhost mesh up`.",
		docLinks: []HttpLink{"https://tailscale.com/download"},
	},
	TunnelClientNotFoundId: {
		id: TunnelClientNotFoundId,
		mdMsg: "## No tunnel client found\n\n" +
			"Neither `cloudflared` nor `ngrok` is on your PATH, so the " +
			"device cannot be exposed to the public internet. Install one " +
			"of them and rerun `termhost tunnel up`.",
		docLinks: []HttpLink{
			"https://developers.cloudflare.com/cloudflare-one/connections/connect-networks/",
			"https://ngrok.com/download",
		},
	},
	MultiplexerNotFoundId: {
		id: MultiplexerNotFoundId,
		mdMsg: "## tmux not installed\n\n" +
			"The terminal multiplexer is missing; long-running services " +
			"would die with your SSH session. Run `termhost up` or " +
			"`pkg install tmux`.",
		docLinks: []HttpLink{"https://github.com/tmux/tmux/wiki"},
	},
	ConfigLoadFailedId: {
		id: ConfigLoadFailedId,
		mdMsg: "## Configuration could not be loaded\n\n" +
			"The config file exists but failed to parse or validate. " +
			"Run `termhost config show` to see the effective configuration " +
			"and `termhost config path` for the file location.",
		docLinks: []HttpLink{"https://cuelang.org/docs/"},
	},
	UnsupportedEnvironmentId: {
		id: UnsupportedEnvironmentId,
		mdMsg: "## Unsupported environment\n\n" +
			"termhost targets Termux on Android and plain Linux hosts. " +
			"Some steps (proot distro, Termux package manager) are skipped " +
			"or degraded elsewhere.",
		docLinks: []HttpLink{"https://termux.dev/"},
	},
}

// Lookup returns the registered issue for id.
func Lookup(id Id) (*Issue, error) {
	i, ok := registry[id]
	if !ok {
		return nil, fmt.Errorf("unknown issue id: %d", id)
	}
	return i, nil
}

// All returns every registered issue in id order.
func All() []*Issue {
	ids := maps.Keys(registry)
	slices.Sort(ids)

	issues := make([]*Issue, 0, len(ids))
	for _, id := range ids {
		issues = append(issues, registry[id])
	}
	return issues
}
