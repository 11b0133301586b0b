// Package schema describes how entity types map to tables.
//
// A Descriptor is built once per entity type from an explicit registration
// and cached in a Registry:
//
//	type User struct {
//	    ID      int64
//	    Name    string
//	    Status  *Status
//	    Profile *Profile
//	    Posts   []*Post
//	}
//
//	func init() {
//	    schema.Register(func(b *schema.Builder[User]) {
//	        b.Table("users").
//	            Fields(
//	                schema.Field("id", func(u *User) *int64 { return &u.ID }).PrimaryKey(),
//	                schema.Field("name", func(u *User) *string { return &u.Name }),
//	                schema.Enum("status", func(u *User) **Status { return &u.Status }, "ACTIVE", "BLOCKED"),
//	            ).
//	            Associations(
//	                schema.HasOne("profile", func(u *User) **Profile { return &u.Profile }, schema.On("id", "user_id")),
//	                schema.HasMany("posts", func(u *User) *[]*Post { return &u.Posts }, schema.On("id", "author_id")),
//	            )
//	    })
//	}
//
// Column values are read and written through the accessor functions given
// at registration, never by reflecting over struct fields. Entities whose
// shape is only known at runtime use *reposql.Record instances and a
// RecordSpec instead.
package schema
