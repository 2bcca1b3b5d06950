package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/clipd/clipd/internal/store"
)

const previewLimit = 60

func printJSON(value any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

// printClipRow renders one entry as a single listing line:
// id, type marker, pin marker, age, preview, and tags.
func printClipRow(clip store.Clip) {
	pin := " "
	if clip.Pinned {
		pin = "*"
	}

	line := fmt.Sprintf("%4d  %s %s  %-4s  %s", clip.ID, typeMarker(clip.ContentType), pin, formatAge(clip.UpdatedAt), preview(clip))
	if len(clip.Tags) > 0 {
		line += "  [" + strings.Join(clip.Tags, ", ") + "]"
	}
	fmt.Println(line)
}

func printClipDetail(clip store.Clip) {
	fmt.Printf("ID:          %d\n", clip.ID)
	fmt.Printf("Type:        %s\n", clip.ContentType)
	fmt.Printf("Pinned:      %t\n", clip.Pinned)
	fmt.Printf("Size:        %s\n", formatBytes(clip.SizeBytes))
	fmt.Printf("Created:     %s\n", clip.CreatedAt.Local().Format(time.DateTime))
	fmt.Printf("Updated:     %s\n", clip.UpdatedAt.Local().Format(time.DateTime))
	if len(clip.Tags) > 0 {
		fmt.Printf("Tags:        %s\n", strings.Join(clip.Tags, ", "))
	}

	switch clip.ContentType {
	case store.ContentTypeImage:
		if clip.ImagePath != nil {
			fmt.Printf("Image:       %s\n", *clip.ImagePath)
		}
		if clip.ImageWidth != nil && clip.ImageHeight != nil {
			fmt.Printf("Dimensions:  %dx%d\n", *clip.ImageWidth, *clip.ImageHeight)
		}
	default:
		if clip.TextContent != nil {
			fmt.Println()
			fmt.Println(*clip.TextContent)
		}
	}
}

func printStats(stats store.StorageStats) {
	fmt.Printf("Entries:     %d (%d text, %d image, %d file)\n",
		stats.TotalClips, stats.TextClips, stats.ImageClips, stats.FileRefClips)
	fmt.Printf("Size:        %s\n", formatBytes(stats.TotalSize))
	if stats.Oldest != nil {
		fmt.Printf("Oldest:      %s\n", stats.Oldest.Local().Format(time.DateTime))
	}
	if stats.Newest != nil {
		fmt.Printf("Newest:      %s\n", stats.Newest.Local().Format(time.DateTime))
	}
}

func typeMarker(contentType store.ContentType) string {
	switch contentType {
	case store.ContentTypeImage:
		return "I"
	case store.ContentTypeFileRef:
		return "F"
	default:
		return "T"
	}
}

// preview flattens an entry's content to one truncated line.
func preview(clip store.Clip) string {
	if clip.ContentType == store.ContentTypeImage {
		if clip.ImageWidth != nil && clip.ImageHeight != nil {
			return fmt.Sprintf("<image %dx%d, %s>", *clip.ImageWidth, *clip.ImageHeight, formatBytes(clip.SizeBytes))
		}
		return fmt.Sprintf("<image, %s>", formatBytes(clip.SizeBytes))
	}

	text := ""
	if clip.TextContent != nil {
		text = *clip.TextContent
	}
	text = strings.Join(strings.Fields(text), " ")

	runes := []rune(text)
	if len(runes) > previewLimit {
		return string(runes[:previewLimit]) + "…"
	}
	return text
}

func formatBytes(size int64) string {
	switch {
	case size >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(size)/float64(1<<20))
	case size >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(size)/float64(1<<10))
	default:
		return fmt.Sprintf("%d B", size)
	}
}

func formatAge(at time.Time) string {
	age := time.Since(at)
	switch {
	case age < time.Minute:
		return "now"
	case age < time.Hour:
		return fmt.Sprintf("%dm", int(age.Minutes()))
	case age < 24*time.Hour:
		return fmt.Sprintf("%dh", int(age.Hours()))
	default:
		return fmt.Sprintf("%dd", int(age.Hours()/24))
	}
}
