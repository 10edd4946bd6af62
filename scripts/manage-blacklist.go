//go:build ignore

package main

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Interactive helper for editing a domain blacklist file. Entries are
// normalized (lowercased, leading "www." stripped) the same way the
// proxy normalizes them at load time.

var reader = bufio.NewReader(os.Stdin)

func main() {
	fmt.Println()
	fmt.Println("╔══════════════════════════════════════════════╗")
	fmt.Println("║   NoDPI Proxy — Blacklist Management Tool    ║")
	fmt.Println("╚══════════════════════════════════════════════╝")
	fmt.Println()

	path := "blacklist.txt"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	domains, comments := load(path)
	fmt.Printf("Loaded %d domains from %s\n\n", len(domains), path)

	for {
		fmt.Println("What would you like to do?")
		fmt.Println("  1) Add a domain")
		fmt.Println("  2) List all domains")
		fmt.Println("  3) Remove a domain")
		fmt.Println("  4) Normalize and deduplicate")
		fmt.Println("  5) Save and exit")
		fmt.Print("\nChoice: ")

		switch prompt() {
		case "1":
			fmt.Print("Domain to add: ")
			d := normalize(prompt())
			if len(d) < 2 {
				fmt.Println("Domain too short, skipped.")
				break
			}
			if _, dup := domains[d]; dup {
				fmt.Println("Already present.")
				break
			}
			domains[d] = struct{}{}
			fmt.Printf("Added %s\n", d)
		case "2":
			for _, d := range sorted(domains) {
				fmt.Println("  " + d)
			}
		case "3":
			fmt.Print("Domain to remove: ")
			d := normalize(prompt())
			if _, ok := domains[d]; !ok {
				fmt.Println("Not found.")
				break
			}
			delete(domains, d)
			fmt.Printf("Removed %s\n", d)
		case "4":
			fmt.Printf("%d unique normalized domains.\n", len(domains))
		case "5":
			if err := save(path, domains, comments); err != nil {
				fmt.Println("Save failed:", err)
				os.Exit(1)
			}
			fmt.Printf("Saved %d domains to %s\n", len(domains), path)
			return
		default:
			fmt.Println("Unknown choice.")
		}
		fmt.Println()
	}
}

func prompt() string {
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func normalize(domain string) string {
	d := strings.ToLower(strings.TrimSpace(domain))
	for strings.HasPrefix(d, "www.") {
		d = d[len("www."):]
	}
	return d
}

func load(path string) (map[string]struct{}, []string) {
	domains := make(map[string]struct{})
	var comments []string

	f, err := os.Open(path)
	if err != nil {
		return domains, comments
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			comments = append(comments, line)
			continue
		}
		if d := normalize(line); len(d) >= 2 {
			domains[d] = struct{}{}
		}
	}
	return domains, comments
}

func save(path string, domains map[string]struct{}, comments []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, c := range comments {
		fmt.Fprintln(w, c)
	}
	for _, d := range sorted(domains) {
		fmt.Fprintln(w, d)
	}
	return w.Flush()
}

func sorted(domains map[string]struct{}) []string {
	out := make([]string, 0, len(domains))
	for d := range domains {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
