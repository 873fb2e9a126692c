package cmd

import (
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/nerith/photofold/config"
	"github.com/nerith/photofold/database/models"
	"github.com/nerith/photofold/internal/app"
	"github.com/nerith/photofold/utils"
	cryptoutil "github.com/nerith/photofold/utils/crypto"
	"github.com/spf13/cobra"
)

// sharelinkCmd manages share links from the terminal, without logging into
// the admin API.
var sharelinkCmd = &cobra.Command{
	Use:   "sharelink",
	Short: "Manage share links",
}

var sharelinkCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a share link for an album",
	Run: func(cmd *cobra.Command, args []string) {
		albumID, _ := cmd.Flags().GetUint("album")
		slug, _ := cmd.Flags().GetString("slug")
		password, _ := cmd.Flags().GetString("password")
		expiresIn, _ := cmd.Flags().GetDuration("expires-in")

		if err := runShareLinkCreate(albumID, slug, password, expiresIn); err != nil {
			log.Fatalf("Failed to create share link: %v", err)
		}
	},
}

var sharelinkListCmd = &cobra.Command{
	Use:   "list",
	Short: "List share links of an album",
	Run: func(cmd *cobra.Command, args []string) {
		albumID, _ := cmd.Flags().GetUint("album")
		if err := runShareLinkList(albumID); err != nil {
			log.Fatalf("Failed to list share links: %v", err)
		}
	},
}

var sharelinkRevokeCmd = &cobra.Command{
	Use:   "revoke <link-id>",
	Short: "Revoke a share link",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			log.Fatalf("Invalid link id: %s", args[0])
		}
		if err := runShareLinkRevoke(uint(id)); err != nil {
			log.Fatalf("Failed to revoke share link: %v", err)
		}
	},
}

func init() {
	sharelinkCreateCmd.Flags().Uint("album", 0, "album id (required)")
	sharelinkCreateCmd.Flags().String("slug", "", "optional custom URL slug")
	sharelinkCreateCmd.Flags().String("password", "", "optional access password")
	sharelinkCreateCmd.Flags().Duration("expires-in", 0, "lifetime, eg 720h (0 = never expires)")
	_ = sharelinkCreateCmd.MarkFlagRequired("album")

	sharelinkListCmd.Flags().Uint("album", 0, "album id (required)")
	_ = sharelinkListCmd.MarkFlagRequired("album")

	sharelinkCmd.AddCommand(sharelinkCreateCmd)
	sharelinkCmd.AddCommand(sharelinkListCmd)
	sharelinkCmd.AddCommand(sharelinkRevokeCmd)
	rootCmd.AddCommand(sharelinkCmd)
}

// newDatabaseContainer brings up config and the database layer only.
func newDatabaseContainer() (*app.Container, error) {
	config.InitConfig()
	container := app.NewContainer(config.Get())
	if err := container.InitDatabase(); err != nil {
		return nil, err
	}
	return container, nil
}

func runShareLinkCreate(albumID uint, slug, password string, expiresIn time.Duration) error {
	container, err := newDatabaseContainer()
	if err != nil {
		return err
	}
	defer container.Close()

	album, err := container.AlbumsRepo.GetAlbumByID(albumID)
	if err != nil {
		return err
	}

	token, err := utils.GenerateShareToken()
	if err != nil {
		return err
	}

	link := &models.ShareLink{
		AlbumID: album.ID,
		Token:   token,
	}
	if slug != "" {
		link.CustomSlug = &slug
	}
	if password != "" {
		hash, err := cryptoutil.GenerateFromPassword(password)
		if err != nil {
			return err
		}
		link.PasswordHash = &hash
		link.IsPasswordProtected = true
	}
	if expiresIn > 0 {
		expiry := time.Now().Add(expiresIn)
		link.ExpiresAt = &expiry
	}

	if err := container.ShareLinksRepo.CreateShareLink(link); err != nil {
		return err
	}

	identifier := link.Token
	if link.CustomSlug != nil {
		identifier = *link.CustomSlug
	}
	fmt.Printf("Created share link %d for album %q\n", link.ID, album.Title)
	fmt.Printf("URL: %s/api/share/%s\n", config.Get().BaseURL(), identifier)
	return nil
}

func runShareLinkList(albumID uint) error {
	container, err := newDatabaseContainer()
	if err != nil {
		return err
	}
	defer container.Close()

	links, err := container.ShareLinksRepo.ListByAlbum(albumID)
	if err != nil {
		return err
	}
	if len(links) == 0 {
		fmt.Println("No share links")
		return nil
	}

	now := time.Now()
	for _, link := range links {
		identifier := link.Token
		if link.CustomSlug != nil {
			identifier = *link.CustomSlug
		}
		state := "active"
		switch {
		case link.IsRevoked:
			state = "revoked"
		case !link.Usable(now):
			state = "expired"
		}
		expiry := "never"
		if link.ExpiresAt != nil {
			expiry = link.ExpiresAt.Format(time.RFC3339)
		}
		fmt.Printf("%-6d %-24s %-8s protected=%-5t expires=%s\n",
			link.ID, identifier, state, link.IsPasswordProtected, expiry)
	}
	return nil
}

func runShareLinkRevoke(id uint) error {
	container, err := newDatabaseContainer()
	if err != nil {
		return err
	}
	defer container.Close()

	if err := container.ShareLinksRepo.Revoke(id); err != nil {
		return err
	}
	fmt.Printf("Revoked share link %d\n", id)
	return nil
}
