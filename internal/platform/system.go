package platform

// System serves the static system facts of a resolved Info. It is the
// system backend on every platform.
type System struct {
	info Info
}

// NewSystem returns a System backend for info.
func NewSystem(info Info) *System {
	return &System{info: info}
}

func (s *System) Name() string   { return "platform" }
func (s *System) Arch() string   { return s.info.Arch }
func (s *System) OS() string     { return s.info.OS }
func (s *System) Locale() string { return s.info.Locale }
