package services

import (
	"github.com/menu-planning/go-menuplan"
	"github.com/menu-planning/go-menuplan/adapters/memory"
	"github.com/menu-planning/go-menuplan/domain/client"
	"github.com/menu-planning/go-menuplan/domain/meal"
	"github.com/menu-planning/go-menuplan/domain/menu"
	"github.com/menu-planning/go-menuplan/domain/shared"
)

// UnitOfWork is the unit of work handed to every handler.
type UnitOfWork interface {
	menuplan.UnitOfWork

	Meals() menuplan.Repository[*meal.Meal]
	Menus() menuplan.Repository[*menu.Menu]
	Clients() menuplan.Repository[*client.Client]
}

// Database is an in-memory database holding meals, menus and clients.
type Database struct {
	db      *memory.DB
	Meals   *memory.Store[*meal.Meal]
	Menus   *memory.Store[*menu.Menu]
	Clients *memory.Store[*client.Client]
}

// NewDatabase creates an empty database with the query fields the handlers use.
func NewDatabase() *Database {
	db := memory.NewDB()
	return &Database{
		db: db,
		Meals: memory.NewStore(db, meal.AggregateType,
			memory.WithField("author_id", func(m *meal.Meal) interface{} { return m.AuthorID() }),
			memory.WithField("menu_id", func(m *meal.Meal) interface{} { return m.MenuID() }),
			memory.WithField("name", func(m *meal.Meal) interface{} { return m.Name() }),
			memory.WithField("tags", func(m *meal.Meal) interface{} { return tagStrings(m.Tags()) }),
		),
		Menus: memory.NewStore(db, menu.AggregateType,
			memory.WithField("author_id", func(m *menu.Menu) interface{} { return m.AuthorID() }),
			memory.WithField("client_id", func(m *menu.Menu) interface{} { return m.ClientID() }),
			memory.WithField("meal_ids", func(m *menu.Menu) interface{} { return m.IDsOfMeals() }),
			memory.WithField("tags", func(m *menu.Menu) interface{} { return tagStrings(m.Tags()) }),
		),
		Clients: memory.NewStore(db, client.AggregateType,
			memory.WithField("author_id", func(c *client.Client) interface{} { return c.AuthorID() }),
			memory.WithField("name", func(c *client.Client) interface{} { return c.Profile().Name }),
		),
	}
}

// NewUnitOfWork returns a fresh unit of work. It is a
// menuplan.UnitOfWorkFactory[UnitOfWork].
func (d *Database) NewUnitOfWork() UnitOfWork {
	session := memory.NewSession(d.db)
	return &MemoryUnitOfWork{
		Session: session,
		meals:   memory.NewRepository(session, d.Meals),
		menus:   memory.NewRepository(session, d.Menus),
		clients: memory.NewRepository(session, d.Clients),
	}
}

// MemoryUnitOfWork is the in-memory UnitOfWork.
type MemoryUnitOfWork struct {
	*memory.Session

	meals   *memory.Repository[*meal.Meal]
	menus   *memory.Repository[*menu.Menu]
	clients *memory.Repository[*client.Client]
}

var _ UnitOfWork = (*MemoryUnitOfWork)(nil)

// Meals returns the meal repository.
func (u *MemoryUnitOfWork) Meals() menuplan.Repository[*meal.Meal] { return u.meals }

// Menus returns the menu repository.
func (u *MemoryUnitOfWork) Menus() menuplan.Repository[*menu.Menu] { return u.menus }

// Clients returns the client repository.
func (u *MemoryUnitOfWork) Clients() menuplan.Repository[*client.Client] { return u.clients }

func tagStrings(tags shared.TagSet) []string {
	out := make([]string, 0, tags.Len())
	for _, t := range tags.Slice() {
		out = append(out, t.String())
	}
	return out
}
