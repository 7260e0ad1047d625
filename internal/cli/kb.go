package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/facilityworks/helpdesk/internal/service"
)

var kbCmd = &cobra.Command{
	Use:   "kb",
	Short: "Knowledge base articles",
}

var kbListCmd = &cobra.Command{
	Use:   "list",
	Short: "List or search articles",
	RunE:  runKBList,
}

var kbViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Show one article",
	Args:  cobra.ExactArgs(1),
	RunE:  runKBView,
}

var kbCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Publish an article",
	RunE:  runKBCreate,
}

var kbDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Remove an article",
	Args:  cobra.ExactArgs(1),
	RunE:  runKBDelete,
}

func init() {
	kbListCmd.Flags().String("query", "", "keyword search")

	kbCreateCmd.Flags().String("title", "", "article title")
	kbCreateCmd.Flags().String("content", "", "article body")
	kbCreateCmd.Flags().StringSlice("keywords", nil, "search keywords")
	kbCreateCmd.Flags().String("category", "", "article category")

	kbCmd.AddCommand(kbListCmd)
	kbCmd.AddCommand(kbViewCmd)
	kbCmd.AddCommand(kbCreateCmd)
	kbCmd.AddCommand(kbDeleteCmd)
}

func runKBList(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	query, _ := cmd.Flags().GetString("query")
	if query != "" {
		articles, err := a.kb.Search(context.Background(), query)
		if err != nil {
			return err
		}
		return printJSON(articles)
	}
	articles, err := a.kb.List(context.Background())
	if err != nil {
		return err
	}
	return printJSON(articles)
}

func runKBView(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	article, err := a.kb.Get(context.Background(), args[0])
	if err != nil {
		return err
	}
	return printJSON(article)
}

func runKBCreate(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	actor, err := a.actor(cmd)
	if err != nil {
		return err
	}
	title, _ := cmd.Flags().GetString("title")
	content, _ := cmd.Flags().GetString("content")
	keywords, _ := cmd.Flags().GetStringSlice("keywords")
	category, _ := cmd.Flags().GetString("category")

	article, err := a.kb.Create(context.Background(), actor, service.ArticleInput{
		Title:    title,
		Content:  content,
		Keywords: keywords,
		Category: category,
	})
	if err != nil {
		return err
	}
	return printJSON(article)
}

func runKBDelete(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	actor, err := a.actor(cmd)
	if err != nil {
		return err
	}
	return a.kb.Delete(context.Background(), actor, args[0])
}
