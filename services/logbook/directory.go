package logbook

import (
	"strconv"
	"strings"

	"rostat-backend/lib/textutil"
)

// MemberDirectory indexes members by id and by normalized display name.
// built wholesale per cache refresh, read-only afterwards.
type MemberDirectory struct {
	members []Member
	byID    map[int]Member
	byName  map[string]Member
}

// NewMemberDirectory builds the indexes in one pass. a duplicate id
// overwrites the earlier entry, last write wins.
func NewMemberDirectory(members []Member) *MemberDirectory {
	d := &MemberDirectory{
		members: members,
		byID:    make(map[int]Member, len(members)),
		byName:  make(map[string]Member, len(members)),
	}
	for _, m := range members {
		d.byID[m.ID] = m
		d.byName[textutil.NameKey(m.Name)] = m
	}
	return d
}

func (d *MemberDirectory) All() []Member {
	return d.members
}

// GetMember looks up a member by id. a missing id is not an error, callers
// must check the second return.
func (d *MemberDirectory) GetMember(id int) (Member, bool) {
	m, ok := d.byID[id]
	return m, ok
}

// GetMemberByName looks up a member by display name, whitespace and case
// differences are ignored.
func (d *MemberDirectory) GetMemberByName(name string) (Member, bool) {
	m, ok := d.byName[textutil.NameKey(name)]
	return m, ok
}

// IsRabbit reports whether the member joined in the given season, by club
// convention first-year member ids start with the season's last two digits.
func (d *MemberDirectory) IsRabbit(m Member, season int) bool {
	suffix := strconv.Itoa(season)
	if len(suffix) < 2 {
		return false
	}
	return strings.HasPrefix(strconv.Itoa(m.ID), suffix[len(suffix)-2:])
}
