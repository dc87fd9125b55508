package domain

import "strconv"

// UserID identifies one of the fixed roster users
type UserID int

// Key returns the presence map key for the user
func (id UserID) Key() string {
	return strconv.Itoa(int(id))
}

// User is a static roster entry known at build time
type User struct {
	ID     UserID `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	Role   string `json:"role" yaml:"role"`
	Image  string `json:"image" yaml:"image"`
	Accent string `json:"accent" yaml:"accent"`
}

// DefaultRoster is the built-in set of board users
var DefaultRoster = []User{
	{ID: 1, Name: "Mike", Role: "Netrunner", Image: "https://i.ibb.co/xSdVH2gc/image.png", Accent: "from-blue-600 to-indigo-600"},
	{ID: 2, Name: "Vika", Role: "Netrunner", Image: "https://i.ibb.co/wNF2mD6c/image.png", Accent: "from-pink-500 to-rose-500"},
	{ID: 3, Name: "Artem", Role: "Netrunner", Image: "https://i.ibb.co/21c28Gnj/image.png", Accent: "from-emerald-500 to-teal-900"},
}

// FindUser looks a user up in the roster
func FindUser(roster []User, id UserID) (User, bool) {
	for _, u := range roster {
		if u.ID == id {
			return u, true
		}
	}
	return User{}, false
}
