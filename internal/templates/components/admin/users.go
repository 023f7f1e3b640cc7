package admin

import (
	"github.com/a-h/templ"

	"github.com/codr1/Lodgeicious/internal/api/authz"
	dbgen "github.com/codr1/Lodgeicious/internal/db/generated"
	"github.com/codr1/Lodgeicious/internal/templates/components/ui"
)

var roleOptions = [][2]string{
	{authz.RoleGuest, "Guest"},
	{authz.RoleAdmin, "Admin"},
}

// UserRow renders one user; the role and status forms swap the row.
func UserRow(user dbgen.User, currentUserID int64) templ.Component {
	return ui.Component(func(b *ui.Writer) {
		b.Printf(`<tr id="user-%d"><td>%s %s</td><td>%s</td><td>%s</td><td>%s</td><td>`,
			user.ID, user.FirstName, user.LastName, user.Email, ui.Date(user.CreatedAt), user.Status)
		if user.ID == currentUserID {
			b.Printf(`%s (you)</td><td></td></tr>`, user.Role)
			return
		}
		b.Printf(`<form method="post" action="/admin/users/%d/role" hx-post="/admin/users/%d/role" hx-target="#user-%d" hx-swap="outerHTML">`,
			user.ID, user.ID, user.ID)
		b.Render(ui.Select("Role", "role", user.Role, roleOptions))
		b.Raw(`<button type="submit">Save</button></form></td><td>`)

		next, label := authz.UserStatusDisabled, "Disable"
		if user.Status != authz.UserStatusActive {
			next, label = authz.UserStatusActive, "Enable"
		}
		b.Printf(`<form method="post" action="/admin/users/%d/status" hx-post="/admin/users/%d/status" hx-target="#user-%d" hx-swap="outerHTML">`,
			user.ID, user.ID, user.ID)
		b.Printf(`<input type="hidden" name="status" value="%s"><button type="submit">%s</button></form></td></tr>`, next, label)
	})
}

func UsersPage(data UsersData) templ.Component {
	return ui.Component(func(b *ui.Writer) {
		b.Render(nav("/admin/users"))
		b.Raw(`<section id="admin-users"><h1>Users</h1>`)
		b.Render(ui.Alert("success", data.Message))
		b.Render(ui.Alert("error", data.Error))
		b.Render(searchForm("/admin/users", "#admin-users", data.Search, "", "", nil))
		if len(data.Page.Items) == 0 {
			b.Raw(`<p class="empty">No users match.</p></section>`)
			return
		}
		b.Raw(`<table><thead><tr><th>Name</th><th>Email</th><th>Joined</th><th>Status</th><th>Role</th><th></th></tr></thead><tbody>`)
		for _, user := range data.Page.Items {
			b.Render(UserRow(user, data.CurrentUserID))
		}
		b.Raw(`</tbody></table>`)
		b.Render(ui.Pagination(ui.Pager{
			Page:       data.Page.Page,
			TotalPages: data.Page.TotalPages(),
			Total:      data.Page.Total,
			BaseURL:    "/admin/users",
			Query:      filterQuery(data.Search, ""),
			Target:     "#admin-users",
		}))
		b.Raw(`</section>`)
	})
}
