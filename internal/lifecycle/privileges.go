// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package lifecycle

import (
	"fmt"
	"os"
	"os/user"
	"strconv"

	"golang.org/x/sys/unix"

	wardenerrors "github.com/tombee/warden/pkg/errors"
)

// DropPrivileges switches the process to the named user and group. The
// group id is changed before the user id: once the user id drops, the
// process may no longer be allowed to shed elevated group rights.
//
// An empty username is a no-op. An empty group name falls back to the
// user's primary group.
func DropPrivileges(username, groupname string) error {
	if username == "" && groupname == "" {
		return nil
	}

	var (
		uid = -1
		gid = -1
	)

	if username != "" {
		u, err := user.Lookup(username)
		if err != nil {
			return &wardenerrors.PrivilegeError{Name: username, Kind: "user", Cause: err}
		}
		uid, err = strconv.Atoi(u.Uid)
		if err != nil {
			return &wardenerrors.PrivilegeError{Name: username, Kind: "user", Cause: err}
		}
		if groupname == "" {
			gid, err = strconv.Atoi(u.Gid)
			if err != nil {
				return &wardenerrors.PrivilegeError{Name: username, Kind: "group", Cause: err}
			}
		}
	}

	if groupname != "" {
		g, err := user.LookupGroup(groupname)
		if err != nil {
			return &wardenerrors.PrivilegeError{Name: groupname, Kind: "group", Cause: err}
		}
		gid, err = strconv.Atoi(g.Gid)
		if err != nil {
			return &wardenerrors.PrivilegeError{Name: groupname, Kind: "group", Cause: err}
		}
	}

	if gid >= 0 {
		// Shed root's supplementary groups before changing ids, or the
		// process keeps them after the drop. Setgroups needs CAP_SETGID,
		// so skip it when not running as root.
		if os.Getuid() == 0 {
			if err := unix.Setgroups([]int{gid}); err != nil {
				name := groupname
				if name == "" {
					name = fmt.Sprintf("gid %d", gid)
				}
				return &wardenerrors.PrivilegeError{Name: name, Kind: "group", Cause: err}
			}
		}
		if err := unix.Setgid(gid); err != nil {
			name := groupname
			if name == "" {
				name = fmt.Sprintf("gid %d", gid)
			}
			return &wardenerrors.PrivilegeError{Name: name, Kind: "group", Cause: err}
		}
	}
	if uid >= 0 {
		if err := unix.Setuid(uid); err != nil {
			return &wardenerrors.PrivilegeError{Name: username, Kind: "user", Cause: err}
		}
	}
	return nil
}
