package types

type NavbarData struct {
	IsAuthenticated bool
	UserID          string
	UserEmail       string
	CanViewForms    bool
	CanEditForms    bool
	CanViewApps     bool
	CanCreateApps   bool
}

type NavbarDataSetter interface {
	SetNavbarData(data NavbarData)
}

type BasePageData struct {
	Title  string
	Notice string
	Error  string
	Navbar NavbarData
}

func (d *BasePageData) SetNavbarData(data NavbarData) {
	d.Navbar = data
}

type LoginPageData struct {
	BasePageData
	Email string
}
