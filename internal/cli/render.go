package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/xenking/shopeasy/internal/domain/browse"
	"github.com/xenking/shopeasy/internal/domain/catalog"
	"github.com/xenking/shopeasy/internal/domain/detail"
	"github.com/xenking/shopeasy/internal/domain/profile"
)

const spinner = "Loading..."

func renderList(w io.Writer, v browse.ListView) {
	fmt.Fprintf(w, "Search: %s\n", v.SearchText)
	switch v.Phase {
	case browse.PhaseLoading:
		fmt.Fprintln(w, spinner)
		return
	case browse.PhaseError:
		fmt.Fprintln(w, v.Message)
		return
	}

	chips := make([]string, 0, len(v.Categories))
	for _, c := range v.Categories {
		if c.Active {
			chips = append(chips, "["+c.Name+"]")
		} else {
			chips = append(chips, c.Name)
		}
	}
	fmt.Fprintln(w, strings.Join(chips, "  "))

	if len(v.Products) == 0 {
		fmt.Fprintln(w, "No products")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, p := range v.Products {
		fmt.Fprintf(tw, "#%d\t%s\t%s\t%s\n", p.ID, p.Title, catalog.FormatPrice(p.Price), catalog.Stars(p.Rating))
	}
	_ = tw.Flush()
}

func renderDetail(w io.Writer, v detail.View) {
	switch v.Phase {
	case detail.PhaseLoading:
		fmt.Fprintln(w, spinner)
		return
	case detail.PhaseError, detail.PhaseNotFound:
		fmt.Fprintln(w, v.Message)
		return
	}

	p := v.Product
	fmt.Fprintln(w, p.Title)
	fmt.Fprintf(w, "%s  %s\n", v.Price, v.Stars)
	if p.Brand != "" {
		fmt.Fprintf(w, "Brand: %s\n", p.Brand)
	}
	if p.Description != "" {
		fmt.Fprintln(w, p.Description)
	}
	if len(v.Carousel) > 0 {
		fmt.Fprintln(w, "Images:")
		for i, img := range v.Carousel {
			fmt.Fprintf(w, "  %d. %s\n", i+1, img)
		}
	}
}

func renderProfile(w io.Writer, e *profile.Editor) {
	p, editing := e.Draft()
	if !editing {
		p = e.Current()
	}
	if editing {
		fmt.Fprintln(w, "Editing profile (profile save | profile cancel)")
	}
	fmt.Fprintf(w, "Name:  %s\n", p.Name)
	fmt.Fprintf(w, "Email: %s\n", p.Email)
	fmt.Fprintf(w, "Photo: %s\n", p.Photo)
}
