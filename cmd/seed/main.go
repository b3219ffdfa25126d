// Command seed writes the built-in demo course to a JSON course file, or
// validates and re-writes an existing seed file. The server refuses to start
// without a course file; run this once per fresh install.
package main

import (
	"flag"
	"log"

	"github.com/coursepilot/coursepilot-lms/internal/course"
)

func main() {
	out := flag.String("out", "./course.json", "path of the course file to write")
	from := flag.String("from", "", "optional existing course JSON to validate and normalize")
	flag.Parse()

	var c *course.Course
	if *from != "" {
		loaded, err := course.Load(*from)
		if err != nil {
			log.Fatalf("load %s: %v", *from, err)
		}
		c = loaded
	} else {
		c = demoCourse()
	}

	if err := c.Save(*out); err != nil {
		log.Fatalf("write %s: %v", *out, err)
	}
	log.Printf("course written to %s (%d topics)", *out, len(c.Topics))
}

func demoCourse() *course.Course {
	return &course.Course{
		Title: "HTTP Proxies: From Basics to Practice",
		Topics: []course.Topic{
			{
				Title: "Introduction to HTTP Proxies",
				Content: `<h2>HTTP proxy servers</h2>
<p>An <b>HTTP proxy</b> is an intermediary node between a client and the
internet. It receives requests from the client, forwards them to the target
server and relays the responses back.</p>
<h3>Proxy types</h3>
<ul>
  <li><b>Forward proxy:</b> acts on behalf of the client, for example to
  filter or anonymize outgoing traffic.</li>
  <li><b>Reverse proxy:</b> acts on behalf of the server, shielding internal
  servers and balancing load.</li>
</ul>`,
				Questions: []course.Question{
					{
						Text: "Which statement best describes the role of an HTTP proxy server?",
						Variants: []string{
							"A database for storing user accounts.",
							"An intermediary between client and server that relays requests and responses.",
							"A protocol for transferring files directly between computers.",
							"An antivirus program protecting the desktop.",
						},
						CorrectIndex: 1,
					},
					{
						Text: "Which proxy type acts on behalf of the server rather than the client?",
						Variants: []string{
							"Forward proxy",
							"Reverse proxy",
							"SOCKS proxy",
							"Transparent proxy",
						},
						CorrectIndex: 1,
					},
				},
			},
			{
				Title: "Caching and Anonymity",
				Content: `<h2>Why put a proxy in the path?</h2>
<p><b>Caching</b> keeps copies of frequently requested resources close to the
client, cutting latency and upstream traffic. <b>Anonymity</b> hides client
details from the target resource. <b>Filtering</b> blocks unwanted sites,
ads or malware at a single control point.</p>`,
				Questions: []course.Question{
					{
						Text: "What is the main benefit of proxy-side caching?",
						Variants: []string{
							"Stronger password hashing.",
							"Faster responses and less upstream traffic for repeated requests.",
							"Automatic load balancing of database queries.",
						},
						CorrectIndex: 1,
					},
					{
						Text: "Which header commonly reveals the original client address to the target server?",
						Variants: []string{
							"X-Forwarded-For",
							"Content-Length",
							"Accept-Encoding",
							"ETag",
						},
						CorrectIndex: 0,
					},
				},
			},
			{
				Title: "HTTPS and the CONNECT Method",
				Content: `<h2>Tunneling encrypted traffic</h2>
<p>For HTTPS the proxy cannot read the request line. The client instead sends
a <code>CONNECT host:port</code> request; the proxy opens a TCP tunnel and
from then on blindly relays bytes in both directions.</p>`,
				Questions: []course.Question{
					{
						Text: "What does an HTTP proxy do after accepting a CONNECT request?",
						Variants: []string{
							"Decrypts the TLS session and inspects the payload.",
							"Relays raw bytes between client and target over a TCP tunnel.",
							"Rewrites the request into plain HTTP.",
						},
						CorrectIndex: 1,
					},
				},
			},
		},
	}
}
