package mapping

import "fmt"

// ProjectType selects which mapping rows apply. Every CSV row carries a
// numeric side marker: 0 for client-only, 1 for server-only, 2 for both.
type ProjectType int

const (
	Client ProjectType = iota
	Server
	Joined
)

// Accepts reports whether a row with the given side marker belongs to this
// project type. Client takes {0,2}, Server takes {1,2}, Joined takes all.
func (p ProjectType) Accepts(side int) bool {
	switch p {
	case Client:
		return side == 0 || side == 2
	case Server:
		return side == 1 || side == 2
	case Joined:
		return side == 0 || side == 1 || side == 2
	default:
		return false
	}
}

func (p ProjectType) String() string {
	switch p {
	case Client:
		return "client"
	case Server:
		return "server"
	case Joined:
		return "joined"
	default:
		return fmt.Sprintf("ProjectType(%d)", int(p))
	}
}

// ParseProjectType resolves the command-line spelling of a project type.
func ParseProjectType(s string) (ProjectType, error) {
	switch s {
	case "client":
		return Client, nil
	case "server":
		return Server, nil
	case "joined":
		return Joined, nil
	default:
		return 0, fmt.Errorf("unknown project type %q (want client, server or joined)", s)
	}
}
