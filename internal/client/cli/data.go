package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dmitrijs2005/maunavault/internal/client/models"
	"github.com/dmitrijs2005/maunavault/internal/client/services"
	"github.com/dmitrijs2005/maunavault/internal/client/session"
	"github.com/google/uuid"
)

// nowFn is a test seam for time.Now.
var nowFn = time.Now

// wipeConfirmation must be typed to confirm wipe.
const wipeConfirmation = "DELETE"

func (a *App) requireUnlocked() error {
	if a.vault.Status() != session.Unlocked {
		return services.ErrNoActiveSession
	}
	return nil
}

func (a *App) Status(ctx context.Context) error {
	st := a.vault.Status()
	fmt.Fprintf(a.out, "Status: %s\n", st)
	if st == session.LoggedOut {
		return nil
	}
	fmt.Fprintf(a.out, "Account: %s\n", a.vault.Email())
	if st != session.Unlocked {
		return nil
	}

	counts := a.vault.Data().Counts()
	for _, c := range models.Collections {
		fmt.Fprintf(a.out, "  %-22s %d\n", c, counts[c])
	}
	return nil
}

// Show prints a collection, or without arguments the metadata and the
// other top-level keys of the vault.
func (a *App) Show(ctx context.Context, args []string) error {
	if err := a.requireUnlocked(); err != nil {
		return err
	}
	data := a.vault.Data()

	if len(args) == 0 {
		meta, err := data.Metadata()
		if err != nil {
			return err
		}
		if err := a.printJSON(meta); err != nil {
			return err
		}
		keys := make([]string, 0, len(data))
		for k := range data {
			if k != models.KeyMetadata {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		hint(a.out, "Keys: "+strings.Join(keys, ", "))
		return nil
	}

	items, err := models.Collection[json.RawMessage](data, args[0])
	if err != nil {
		return err
	}
	return a.printJSON(items)
}

// Add reads a JSON object and appends it to a collection. Objects without
// an id get a fresh one.
func (a *App) Add(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: add <collection> (one of %s)", errUsage, strings.Join(models.Collections, ", "))
	}
	key := args[0]
	if !models.IsCollection(key) {
		return fmt.Errorf("%w: %s", models.ErrUnknownCollection, key)
	}
	if err := a.requireUnlocked(); err != nil {
		return err
	}

	text, err := GetMultiline(a.reader, "Enter the entry as a JSON object", a.out)
	if err != nil {
		return err
	}
	entry := map[string]any{}
	if err := json.Unmarshal([]byte(text), &entry); err != nil {
		return fmt.Errorf("entry must be a JSON object: %w", err)
	}
	if _, ok := entry["id"]; !ok {
		entry["id"] = uuid.NewString()
	}
	if _, ok := entry["createdAt"]; !ok {
		entry["createdAt"] = nowFn().UTC().Format(time.RFC3339)
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	items, err := models.Collection[json.RawMessage](a.vault.Data(), key)
	if err != nil {
		return err
	}
	items = append(items, raw)

	partial := models.UserData{}
	if err := models.SetCollection(partial, key, items); err != nil {
		return err
	}
	if _, err := a.vault.Merge(ctx, partial); err != nil {
		return err
	}

	success(a.out, fmt.Sprintf("Added to %s (%d entries)", key, len(items)))
	return nil
}

// SetMeta merges name=value pairs into the vault metadata.
func (a *App) SetMeta(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: set-meta name=value...", errUsage)
	}
	patch, err := models.MetadataFromString(args)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(patch)
	if err != nil {
		return err
	}

	if _, err := a.vault.Merge(ctx, models.UserData{models.KeyMetadata: raw}); err != nil {
		return err
	}

	success(a.out, "Metadata updated")
	return nil
}

// Export writes a decrypted backup to a file, or to the terminal when no
// file is given.
func (a *App) Export(ctx context.Context, args []string) error {
	exp, err := a.vault.Export(ctx)
	if err != nil {
		return err
	}
	b, err := json.MarshalIndent(exp, "", "  ")
	if err != nil {
		return err
	}

	if len(args) == 0 {
		fmt.Fprintln(a.out, string(b))
		return nil
	}

	if err := os.WriteFile(args[0], b, 0o600); err != nil {
		return err
	}
	success(a.out, "Exported to "+args[0])
	hint(a.out, "The file is NOT encrypted")
	return nil
}

// Wipe deletes the encrypted record from the server after confirmation.
func (a *App) Wipe(ctx context.Context) error {
	answer, err := getSimpleText(a.reader, fmt.Sprintf("This deletes all vault data. Type %s to confirm", wipeConfirmation), a.out)
	if err != nil {
		return err
	}
	if answer != wipeConfirmation {
		hint(a.out, "Cancelled")
		return nil
	}

	if err := a.vault.DeleteAll(ctx); err != nil {
		return err
	}
	success(a.out, "Vault data deleted")
	return nil
}

func (a *App) printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, string(b))
	return nil
}
