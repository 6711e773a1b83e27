package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"umrah-desk/api"
	"umrah-desk/storage"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func sessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage the operator session",
	}

	cmd.AddCommand(sessionSetCmd())
	cmd.AddCommand(sessionStatusCmd())
	cmd.AddCommand(sessionClearCmd())
	return cmd
}

func sessionSetCmd() *cobra.Command {
	var token string
	var orgID int64
	var orgName string
	var branchID int64
	tokenDefault := os.Getenv("DESK_ACCESS_TOKEN")

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store the access token and organization to work on",
		RunE: func(cmd *cobra.Command, args []string) error {
			if orgID <= 0 {
				return fmt.Errorf("--org is required")
			}
			if token == "" {
				fmt.Print("Access token: ")
				bytes, err := term.ReadPassword(int(os.Stdin.Fd()))
				fmt.Println()
				if err != nil {
					return err
				}
				token = strings.TrimSpace(string(bytes))
			}
			if token == "" {
				return fmt.Errorf("access token is required")
			}

			identity, err := api.ParseToken(token)
			if err != nil {
				return err
			}
			if identity.Expired(time.Now()) {
				return fmt.Errorf("access token expired at %s", identity.ExpiresAt.Format(time.RFC3339))
			}

			session := storage.Session{
				AccessToken:  token,
				Organization: storage.SessionOrg{ID: orgID, Name: orgName},
				BranchID:     branchID,
				OperatorID:   identity.UserID,
				SavedAt:      time.Now().UTC().Format(time.RFC3339),
			}
			rc := session.RequestContext()
			ctx := context.Background()

			user, err := client.GetUser(ctx, rc, identity.UserID)
			if err != nil {
				log.WithError(err).Warn("could not load operator profile")
			} else {
				session.OperatorName = user.DisplayName()
				if session.Organization.Name == "" {
					session.Organization.Name = organizationName(user, orgID)
				}
			}

			if branchID != 0 {
				branches, err := client.ListBranches(ctx, rc)
				if err != nil {
					return fmt.Errorf("check branch: %w", err)
				}
				if !hasBranch(branches, branchID) {
					return fmt.Errorf("branch %d does not belong to organization %d", branchID, orgID)
				}
			}

			if err := storage.SaveSession(&session); err != nil {
				return err
			}
			fmt.Printf("Session saved for %s in organization %s.\n", valueOr(session.OperatorName, fmt.Sprintf("user %d", session.OperatorID)), valueOr(session.Organization.Name, fmt.Sprint(orgID)))
			return nil
		},
	}

	cmd.Flags().StringVar(&token, "token", tokenDefault, "Access token (default: $DESK_ACCESS_TOKEN, prompted when empty)")
	cmd.Flags().Int64Var(&orgID, "org", 0, "Organization ID")
	cmd.Flags().StringVar(&orgName, "org-name", "", "Organization display name")
	cmd.Flags().Int64Var(&branchID, "branch", 0, "Restrict branch orders to this branch")
	return cmd
}

func sessionStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := storage.LoadSession()
			if err != nil {
				return err
			}
			if session == nil || session.AccessToken == "" {
				fmt.Println("No session.")
				return nil
			}

			identity, err := api.ParseToken(session.AccessToken)
			if err != nil {
				return err
			}
			if outputJSON {
				return writeJSON(map[string]any{
					"organization": session.Organization,
					"branch_id":    session.BranchID,
					"operator_id":  session.OperatorID,
					"operator":     session.OperatorName,
					"expires_at":   identity.ExpiresAt,
					"expired":      identity.Expired(time.Now()),
				})
			}

			if identity.Expired(time.Now()) {
				fmt.Printf("Token expired for user %d. Run 'desk session set' with a fresh token.\n", session.OperatorID)
				return nil
			}
			fmt.Printf("Operator: %s (%d)\n", valueOr(session.OperatorName, "-"), session.OperatorID)
			fmt.Printf("Organization: %s (%d)\n", valueOr(session.Organization.Name, "-"), session.Organization.ID)
			if session.BranchID != 0 {
				fmt.Printf("Branch: %d\n", session.BranchID)
			}
			if !identity.ExpiresAt.IsZero() {
				fmt.Printf("Token expires: %s\n", identity.ExpiresAt.Format(time.RFC3339))
			}
			return nil
		},
	}

	return cmd
}

func sessionClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := storage.ClearSession(); err != nil {
				return err
			}
			fmt.Println("Session cleared.")
			return nil
		},
	}

	return cmd
}

func organizationName(user api.User, orgID int64) string {
	for _, org := range user.OrganizationDetails {
		if org.ID == orgID {
			return org.Name
		}
	}
	return ""
}

func hasBranch(branches []api.Branch, id int64) bool {
	for _, branch := range branches {
		if branch.ID == id {
			return true
		}
	}
	return false
}
