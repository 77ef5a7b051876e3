package vault

// Event topics published by the Vault module.
const (
	// TopicInventoryReplaced is published after ReplaceAll swaps the mapping.
	// Payload is InventoryReplacedEvent.
	TopicInventoryReplaced = "vault.inventory.replaced"
)

// InventoryReplacedEvent lists the addresses whose credentials were added,
// changed, or dropped by an inventory replacement.
type InventoryReplacedEvent struct {
	Changed []string
	Total   int
}
