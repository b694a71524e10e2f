package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Harshitk-cp/begrippen/internal/domain"
	"github.com/Harshitk-cp/begrippen/internal/registry"
	"github.com/Harshitk-cp/begrippen/internal/service"
)

var (
	duplicatesCtx    domain.ContextRef
	duplicatesCorpus string
)

// corpusEntry is one definition in a corpus file. JSON files parse too, since
// JSON is valid YAML.
type corpusEntry struct {
	ID           string `yaml:"id"`
	Term         string `yaml:"term"`
	Text         string `yaml:"text"`
	Category     string `yaml:"category"`
	Organisation string `yaml:"organisation"`
	Jurisdiction string `yaml:"jurisdiction"`
	LegalAct     string `yaml:"legal_act"`
}

func loadCorpus(path string) ([]domain.Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	var entries []corpusEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse corpus %s: %w", path, err)
	}

	out := make([]domain.Definition, 0, len(entries))
	for i, e := range entries {
		cat, err := domain.ParseCategory(e.Category)
		if err != nil {
			return nil, fmt.Errorf("corpus entry %d: %w", i+1, err)
		}
		id := e.ID
		if id == "" {
			id = strconv.Itoa(i + 1)
		}
		out = append(out, domain.Definition{
			ID:       id,
			Term:     e.Term,
			Text:     e.Text,
			Category: cat,
			Context: domain.ContextRef{
				Organisation: e.Organisation,
				Jurisdiction: e.Jurisdiction,
				LegalAct:     e.LegalAct,
			},
			Source: path,
		})
	}
	return out, nil
}

var duplicatesCmd = &cobra.Command{
	Use:   "duplicates [term] [definition]",
	Short: "Find existing definitions that resemble a candidate",
	Long: `Compare a candidate definition with every definition in a corpus file
sharing its context. Matches are reported best first.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		corpus, err := loadCorpus(duplicatesCorpus)
		if err != nil {
			return err
		}
		synonyms, err := registry.LoadSynonyms(synonymsGlob)
		if err != nil {
			return err
		}

		svc := service.NewDuplicateService(synonyms, logger)
		candidate := domain.Definition{Term: args[0], Text: args[1], Context: duplicatesCtx}
		matches, err := svc.FindDuplicates(candidate, corpus)
		if err != nil {
			return err
		}
		if matches == nil {
			matches = []domain.DuplicateMatch{}
		}
		return printJSON(cmd.OutOrStdout(), matches)
	},
}

func init() {
	rootCmd.AddCommand(duplicatesCmd)
	addContextFlags(duplicatesCmd, &duplicatesCtx)
	duplicatesCmd.Flags().StringVar(&duplicatesCorpus, "corpus", "", "YAML or JSON file with existing definitions")
	_ = duplicatesCmd.MarkFlagRequired("corpus")
}
