// Package command provides the command registry, parser, and the handlers
// that turn a player's text into actions on the world.
package command

// Categories for organizing commands.
const (
	CategoryItems  = "items"
	CategoryPuzzle = "puzzles"
	CategoryWorld  = "world"
	CategorySystem = "system"
)

// Handler identifiers mapping commands to their implementation.
const (
	HandlerTake       = "take"
	HandlerDrop       = "drop"
	HandlerGive       = "give"
	HandlerSteal      = "steal"
	HandlerStash      = "stash"
	HandlerUnstash    = "unstash"
	HandlerEquip      = "equip"
	HandlerUnequip    = "unequip"
	HandlerDress      = "dress"
	HandlerUndress    = "undress"
	HandlerCraft      = "craft"
	HandlerUncraft    = "uncraft"
	HandlerInspect    = "inspect"
	HandlerInventory  = "inventory"
	HandlerActivate   = "activate"
	HandlerDeactivate = "deactivate"
	HandlerUse        = "use"
	HandlerUnlock     = "unlock"
	HandlerLock       = "lock"
	HandlerLook       = "look"
	HandlerHelp       = "help"
	HandlerQuit       = "quit"
)

// Command defines a player-invocable command.
type Command struct {
	// Name is the canonical command name.
	Name string
	// Aliases are alternate names for this command.
	Aliases []string
	// Usage shows the argument form, e.g. "take <item> [from <container>]".
	Usage string
	// Help is the short help text displayed to players.
	Help string
	// Category groups the command.
	Category string
	// Handler selects the implementation.
	Handler string
}

// BuiltinCommands returns all built-in commands for the game.
func BuiltinCommands() []Command {
	return []Command{
		// Item commands
		{Name: "take", Aliases: []string{"get", "t"}, Usage: "take <item> [from <container>]", Help: "Pick up an item", Category: CategoryItems, Handler: HandlerTake},
		{Name: "drop", Aliases: []string{"discard", "put"}, Usage: "drop <item> [on|in <container>]", Help: "Put down an item you are holding", Category: CategoryItems, Handler: HandlerDrop},
		{Name: "give", Usage: "give <item> to <player>", Help: "Hand an item to another player", Category: CategoryItems, Handler: HandlerGive},
		{Name: "steal", Aliases: []string{"pickpocket"}, Usage: "steal from [<slot> of] <player>'s <container>", Help: "Try to lift an item from someone's bag", Category: CategoryItems, Handler: HandlerSteal},
		{Name: "stash", Aliases: []string{"store"}, Usage: "stash <item> in [<slot> of] <container>", Help: "Put a held item into something you carry", Category: CategoryItems, Handler: HandlerStash},
		{Name: "unstash", Aliases: []string{"retrieve"}, Usage: "unstash <item> [from [<slot> of] <container>]", Help: "Take an item out of something you carry", Category: CategoryItems, Handler: HandlerUnstash},
		{Name: "equip", Aliases: []string{"wear"}, Usage: "equip <item> [to <slot>]", Help: "Put on a held item", Category: CategoryItems, Handler: HandlerEquip},
		{Name: "unequip", Aliases: []string{"remove"}, Usage: "unequip <item>", Help: "Take off something you are wearing", Category: CategoryItems, Handler: HandlerUnequip},
		{Name: "dress", Usage: "dress from <container>", Help: "Put on everything you can from a container", Category: CategoryItems, Handler: HandlerDress},
		{Name: "undress", Usage: "undress [on|in <container>]", Help: "Take off everything you are wearing", Category: CategoryItems, Handler: HandlerUndress},
		{Name: "craft", Aliases: []string{"combine"}, Usage: "craft <item> with <item>", Help: "Combine the two items in your hands", Category: CategoryItems, Handler: HandlerCraft},
		{Name: "uncraft", Aliases: []string{"dismantle"}, Usage: "uncraft <item>", Help: "Take a held item apart", Category: CategoryItems, Handler: HandlerUncraft},
		{Name: "inventory", Aliases: []string{"inv", "i"}, Usage: "inventory", Help: "Show what you are carrying", Category: CategoryItems, Handler: HandlerInventory},

		// Puzzle commands
		{Name: "use", Aliases: []string{"attempt"}, Usage: "use <puzzle> [answer] | use <item> on <puzzle>", Help: "Interact with a puzzle", Category: CategoryPuzzle, Handler: HandlerUse},
		{Name: "unlock", Usage: "unlock <lock> [with <key or combination>]", Help: "Open a lock", Category: CategoryPuzzle, Handler: HandlerUnlock},
		{Name: "lock", Usage: "lock <lock> [with <key>]", Help: "Close a lock", Category: CategoryPuzzle, Handler: HandlerLock},
		{Name: "activate", Aliases: []string{"on"}, Usage: "activate <fixture>", Help: "Turn on a fixture", Category: CategoryPuzzle, Handler: HandlerActivate},
		{Name: "deactivate", Aliases: []string{"off"}, Usage: "deactivate <fixture>", Help: "Turn off a fixture", Category: CategoryPuzzle, Handler: HandlerDeactivate},

		// World commands
		{Name: "look", Aliases: []string{"l"}, Usage: "look", Help: "Look around the current room", Category: CategoryWorld, Handler: HandlerLook},
		{Name: "inspect", Aliases: []string{"examine", "x", "ex"}, Usage: "inspect <thing>", Help: "Look closely at a player, fixture, puzzle or item", Category: CategoryWorld, Handler: HandlerInspect},

		// System commands
		{Name: "help", Aliases: []string{"?"}, Usage: "help", Help: "Show available commands", Category: CategorySystem, Handler: HandlerHelp},
		{Name: "quit", Aliases: []string{"exit"}, Usage: "quit", Help: "Disconnect from the game", Category: CategorySystem, Handler: HandlerQuit},
	}
}
