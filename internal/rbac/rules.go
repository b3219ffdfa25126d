package rbac

// Simple default policy. Students learn and see their own data; admins get
// everything (content editing, user and result listings).
var RolePermissions = map[string][]string{
	"student": {
		"topic:view",
		"session:run",
		"test:run",
		"profile:view",
		"results:view-own",
		"asset:view",
	},
	"admin": {
		"*", // everything
	},
}
